package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/gqlboard/internal/model"
	"github.com/hitoshi/gqlboard/internal/repository"
)

// ErrResolverNotImplemented はスキーマに宣言されているがリゾルバが存在しないフィールドのエラー。
var ErrResolverNotImplemented = errors.New("resolver not implemented")

// ErrPostNotFound は非nullのPostを返すフィールドで投稿が見つからない場合のエラー。
var ErrPostNotFound = errors.New("post not found")

// Resolver はルートリゾルバ。QueryとMutationで同名フィールド（post）を持つため、
// 操作種別ごとにリゾルバを分けて返す。
type Resolver struct {
	client *repository.Client
}

// NewResolver はデータアクセスクライアントを保持するルートリゾルバを生成する。
func NewResolver(client *repository.Client) *Resolver {
	return &Resolver{client: client}
}

// Query はQuery型のリゾルバを返す。
func (r *Resolver) Query() *QueryResolver {
	return &QueryResolver{client: r.client}
}

// Mutation はMutation型のリゾルバを返す。
func (r *Resolver) Mutation() *MutationResolver {
	return &MutationResolver{client: r.client}
}

// QueryResolver はQuery型の各フィールドを解決する。
type QueryResolver struct {
	client *repository.Client
}

type idArgs struct {
	ID int32
}

// Users は全ユーザーを返す。
func (q *QueryResolver) Users(ctx context.Context) (*[]*UserResolver, error) {
	users, err := q.client.User.FindMany(ctx, repository.UserWhere{})
	if err != nil {
		return nil, err
	}
	out := make([]*UserResolver, len(users))
	for i, u := range users {
		out[i] = &UserResolver{user: u}
	}
	return &out, nil
}

// Posts は全投稿を返す。
func (q *QueryResolver) Posts(ctx context.Context) (*[]*PostResolver, error) {
	posts, err := q.client.Post.FindMany(ctx, repository.PostWhere{})
	if err != nil {
		return nil, err
	}
	return newPostList(q.client, posts), nil
}

// Post はIDに一致する最初の投稿を返す。
func (q *QueryResolver) Post(ctx context.Context, args idArgs) (*PostResolver, error) {
	id := int(args.ID)
	post, err := q.client.Post.FindFirst(ctx, repository.PostWhere{ID: &id})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: id %d", ErrPostNotFound, id)
	}
	return newPost(q.client, post), nil
}

// CommentsFromPost はIDに一致する投稿の一覧を取得する。
// スキーマ上の戻り値は単一のPostのため、一覧そのものをPostとして解決し、各フィールドはnullになる。
func (q *QueryResolver) CommentsFromPost(ctx context.Context, args idArgs) (*PostResolver, error) {
	id := int(args.ID)
	if _, err := q.client.Post.FindMany(ctx, repository.PostWhere{ID: &id}); err != nil {
		return nil, err
	}
	return newPost(q.client, nil), nil
}

// Comment はリゾルバ未実装のフィールド。
func (q *QueryResolver) Comment(ctx context.Context, args idArgs) (*PostResolver, error) {
	return nil, fmt.Errorf("comment: %w", ErrResolverNotImplemented)
}

// MutationResolver はMutation型の各フィールドを解決する。
type MutationResolver struct {
	client *repository.Client
}

type signUpArgs struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Name      string
}

// SignUp はユーザーを作成する。パスワードは受け取った値のまま保存する。
// 作成したユーザーはAuthPayloadの形をしていないため、tokenとuserはどちらもnullになる。
func (m *MutationResolver) SignUp(ctx context.Context, args signUpArgs) (*AuthPayloadResolver, error) {
	if _, err := m.client.User.Create(ctx, repository.UserCreateInput{
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Email:     args.Email,
		Password:  args.Password,
	}); err != nil {
		return nil, err
	}
	return &AuthPayloadResolver{payload: &model.AuthPayload{}}, nil
}

type loginArgs struct {
	Email    string
	Password string
}

// Login はリゾルバ未実装のフィールド。
func (m *MutationResolver) Login(ctx context.Context, args loginArgs) (*AuthPayloadResolver, error) {
	return nil, fmt.Errorf("login: %w", ErrResolverNotImplemented)
}

type createPostArgs struct {
	AuthorID  int32
	Content   string
	CreatedAt *Date
	UpdatedAt *Date
}

// Post は既存ユーザーに関連付けた投稿を作成する。
func (m *MutationResolver) Post(ctx context.Context, args createPostArgs) (*PostResolver, error) {
	data := repository.PostCreateInput{
		Author:  repository.UserConnect{ID: int(args.AuthorID)},
		Content: args.Content,
	}
	if args.CreatedAt != nil {
		data.CreatedAt = &args.CreatedAt.Time
	}
	if args.UpdatedAt != nil {
		data.UpdatedAt = &args.UpdatedAt.Time
	}

	post, err := m.client.Post.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	return newPost(m.client, post), nil
}

type updatePostArgs struct {
	ID      int32
	Content *string
}

// UpdatePost は投稿の本文を更新する。
func (m *MutationResolver) UpdatePost(ctx context.Context, args updatePostArgs) (*PostResolver, error) {
	post, err := m.client.Post.Update(ctx,
		repository.PostWhereUnique{ID: int(args.ID)},
		repository.PostUpdateInput{Content: args.Content},
	)
	if err != nil {
		return nil, err
	}
	return newPost(m.client, post), nil
}

// DeletePost は投稿を削除する。
// 引数一式を2番目の引数として渡しており、クライアントに拒否されるため削除は行われない。
func (m *MutationResolver) DeletePost(ctx context.Context, args idArgs) (*PostResolver, error) {
	post, err := m.client.Post.Delete(ctx,
		repository.PostWhereUnique{ID: int(args.ID)},
		args,
	)
	if err != nil {
		return nil, err
	}
	return newPost(m.client, post), nil
}

type addCommentArgs struct {
	ID        int32
	Comments  *int32
	UpdatedAt *Date
}

// AddCommentToPost は投稿のcommentsに渡された値をそのまま設定する。updatedAtは使用しない。
func (m *MutationResolver) AddCommentToPost(ctx context.Context, args addCommentArgs) (*PostResolver, error) {
	var data repository.PostUpdateInput
	if args.Comments != nil {
		c := int(*args.Comments)
		data.Comments = &c
	}

	post, err := m.client.Post.Update(ctx, repository.PostWhereUnique{ID: int(args.ID)}, data)
	if err != nil {
		return nil, err
	}
	return newPost(m.client, post), nil
}
