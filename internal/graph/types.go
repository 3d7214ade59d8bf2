package graph

import (
	"context"

	"github.com/hitoshi/gqlboard/internal/model"
	"github.com/hitoshi/gqlboard/internal/repository"
)

// UserResolver はUser型を解決する。
type UserResolver struct {
	user *model.User
}

func (r *UserResolver) ID() int32 { return int32(r.user.ID) }

func (r *UserResolver) FirstName() *string { return &r.user.FirstName }

func (r *UserResolver) LastName() *string { return &r.user.LastName }

func (r *UserResolver) Email() *string { return &r.user.Email }

func (r *UserResolver) Password() *string { return &r.user.Password }

// PostResolver はPost型を解決する。
// author/commentsは参照先をクライアント経由で遅延取得する。postがnilの場合は全フィールドがnull。
type PostResolver struct {
	client *repository.Client
	post   *model.Post
}

func newPost(client *repository.Client, p *model.Post) *PostResolver {
	return &PostResolver{client: client, post: p}
}

func newPostList(client *repository.Client, posts []*model.Post) *[]*PostResolver {
	out := make([]*PostResolver, len(posts))
	for i, p := range posts {
		out[i] = newPost(client, p)
	}
	return &out
}

func (r *PostResolver) ID() *int32 {
	if r.post == nil {
		return nil
	}
	id := int32(r.post.ID)
	return &id
}

// Author は投稿者を返す。ユーザーが存在しない場合はnull。
func (r *PostResolver) Author(ctx context.Context) (*UserResolver, error) {
	if r.post == nil {
		return nil, nil
	}
	id := r.post.AuthorID
	user, err := r.client.User.FindFirst(ctx, repository.UserWhere{ID: &id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &UserResolver{user: user}, nil
}

// Comments はcommentsに設定された投稿IDに一致する投稿を返す。未設定の場合はnull。
func (r *PostResolver) Comments(ctx context.Context) (*[]*PostResolver, error) {
	if r.post == nil || r.post.Comments == nil {
		return nil, nil
	}
	id := *r.post.Comments
	posts, err := r.client.Post.FindMany(ctx, repository.PostWhere{ID: &id})
	if err != nil {
		return nil, err
	}
	return newPostList(r.client, posts), nil
}

func (r *PostResolver) Content() *string {
	if r.post == nil {
		return nil
	}
	return &r.post.Content
}

func (r *PostResolver) CreatedAt() *Date {
	if r.post == nil {
		return nil
	}
	return NewDate(r.post.CreatedAt)
}

func (r *PostResolver) UpdatedAt() *Date {
	if r.post == nil {
		return nil
	}
	return NewDate(r.post.UpdatedAt)
}

// AuthPayloadResolver はAuthPayload型を解決する。
type AuthPayloadResolver struct {
	payload *model.AuthPayload
}

func (r *AuthPayloadResolver) Token() *string { return r.payload.Token }

func (r *AuthPayloadResolver) User() *UserResolver {
	if r.payload.User == nil {
		return nil
	}
	return &UserResolver{user: r.payload.User}
}
