// Package repository はデータ永続化のインターフェースを定義する。
//
// 各エンティティごとにFindMany/FindFirst/Create/Update/Deleteを持つ
// ORMクライアント形式のAPIを提供し、リゾルバはこれを直接呼び出す。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/gqlboard/internal/model"
)

var (
	// ErrRecordNotFound は更新・削除・関連付けの対象レコードが存在しない場合のエラー。
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidArguments はクライアントの呼び出し引数が不正な場合のエラー。
	ErrInvalidArguments = errors.New("invalid client arguments")
)

// UserWhere はユーザー検索条件。nilのフィールドは条件に含めない。
type UserWhere struct {
	ID    *int
	Email *string
}

// UserCreateInput はユーザー作成時のデータ。
type UserCreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// PostWhere は投稿検索条件。nilのフィールドは条件に含めない。
type PostWhere struct {
	ID       *int
	AuthorID *int
}

// PostWhereUnique は投稿を一意に特定する条件。
type PostWhereUnique struct {
	ID int
}

// UserConnect は既存ユーザーへの関連付けを表す。
type UserConnect struct {
	ID int
}

// PostCreateInput は投稿作成時のデータ。
// CreatedAt/UpdatedAtがnilの場合は作成時刻が設定される。
type PostCreateInput struct {
	Author    UserConnect
	Content   string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// PostUpdateInput は投稿更新時のデータ。nilのフィールドは更新しない。
type PostUpdateInput struct {
	Content  *string
	Comments *int
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindMany は条件に一致するユーザーをID昇順で返す。
	FindMany(ctx context.Context, where UserWhere) ([]*model.User, error)

	// FindFirst は条件に一致する最初のユーザーを返す。見つからない場合はnilを返す。
	FindFirst(ctx context.Context, where UserWhere) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDを含むレコードを返す。
	Create(ctx context.Context, data UserCreateInput) (*model.User, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// FindMany は条件に一致する投稿をID昇順で返す。
	FindMany(ctx context.Context, where PostWhere) ([]*model.Post, error)

	// FindFirst は条件に一致する最初の投稿を返す。見つからない場合はnilを返す。
	FindFirst(ctx context.Context, where PostWhere) (*model.Post, error)

	// Create は投稿を作成する。Author.IDのユーザーが存在しない場合はErrRecordNotFoundを返す。
	Create(ctx context.Context, data PostCreateInput) (*model.Post, error)

	// Update は投稿を更新し、更新後のレコードを返す。
	// 対象が存在しない場合はErrRecordNotFoundを返す。
	Update(ctx context.Context, where PostWhereUnique, data PostUpdateInput) (*model.Post, error)

	// Delete は投稿を削除し、削除したレコードを返す。
	// 引数は条件1つのみを受け付け、余分な引数がある場合はErrInvalidArgumentsを返す。
	Delete(ctx context.Context, where PostWhereUnique, extra ...any) (*model.Post, error)
}

// Client はリゾルバに渡すデータアクセスクライアント。
// プロセス起動時に1つだけ生成し、全リクエストで共有する。
type Client struct {
	User UserRepository
	Post PostRepository
}
