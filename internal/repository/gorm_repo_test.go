package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hitoshi/gqlboard/internal/database/dbtest"
	"github.com/hitoshi/gqlboard/internal/model"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(dbtest.New(t))
}

func createUser(t *testing.T, c *Client, email string) *model.User {
	t.Helper()
	u, err := c.User.Create(context.Background(), UserCreateInput{
		FirstName: "A",
		LastName:  "B",
		Email:     email,
		Password:  "x",
	})
	if err != nil {
		t.Fatalf("User.Create returned error: %v", err)
	}
	return u
}

func TestGormUserRepo_CreateAssignsID(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	u := createUser(t, c, "a@b.com")
	if u.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	users, err := c.User.FindMany(ctx, UserWhere{})
	if err != nil {
		t.Fatalf("FindMany returned error: %v", err)
	}
	want := []*model.User{{ID: u.ID, FirstName: "A", LastName: "B", Email: "a@b.com", Password: "x"}}
	if diff := cmp.Diff(want, users); diff != "" {
		t.Errorf("FindMany mismatch (-want +got):\n%s", diff)
	}
}

// TestGormUserRepo_EmailNotUnique はメールアドレスの重複が許容されることを検証する。
func TestGormUserRepo_EmailNotUnique(t *testing.T) {
	c := newTestClient(t)

	first := createUser(t, c, "dup@example.com")
	second := createUser(t, c, "dup@example.com")
	if first.ID == second.ID {
		t.Errorf("expected distinct IDs, got %d twice", first.ID)
	}

	users, err := c.User.FindMany(context.Background(), UserWhere{Email: strPtr("dup@example.com")})
	if err != nil {
		t.Fatalf("FindMany returned error: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
}

func TestGormUserRepo_FindFirst_NotFoundReturnsNil(t *testing.T) {
	c := newTestClient(t)

	u, err := c.User.FindFirst(context.Background(), UserWhere{ID: intPtr(42)})
	if err != nil {
		t.Fatalf("FindFirst returned error: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}
}

func TestGormPostRepo_CreateConnectsAuthor(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	u := createUser(t, c, "author@example.com")

	created := time.UnixMilli(1700000000000)
	p, err := c.Post.Create(ctx, PostCreateInput{
		Author:    UserConnect{ID: u.ID},
		Content:   "hello",
		CreatedAt: timePtr(created),
		UpdatedAt: timePtr(created),
	})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected assigned post ID")
	}

	got, err := c.Post.FindFirst(ctx, PostWhere{ID: intPtr(p.ID)})
	if err != nil {
		t.Fatalf("FindFirst returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected post, got nil")
	}
	if got.AuthorID != u.ID {
		t.Errorf("AuthorID = %d, want %d", got.AuthorID, u.ID)
	}
	if got.Content != "hello" {
		t.Errorf("Content = %q, want %q", got.Content, "hello")
	}
	if got.CreatedAt.UnixMilli() != created.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", got.CreatedAt.UnixMilli(), created.UnixMilli())
	}
}

// TestGormPostRepo_CreateDefaultsTimestamps は日時未指定時に作成時刻が設定されることを検証する。
func TestGormPostRepo_CreateDefaultsTimestamps(t *testing.T) {
	c := newTestClient(t)
	u := createUser(t, c, "author@example.com")

	before := time.Now().Add(-time.Minute)
	p, err := c.Post.Create(context.Background(), PostCreateInput{
		Author:  UserConnect{ID: u.ID},
		Content: "no dates",
	})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}
	if p.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want recent time", p.CreatedAt)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestGormPostRepo_CreateUnknownAuthor(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Post.Create(context.Background(), PostCreateInput{
		Author:  UserConnect{ID: 999},
		Content: "orphan",
	})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}

	posts, err := c.Post.FindMany(context.Background(), PostWhere{})
	if err != nil {
		t.Fatalf("FindMany returned error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("len(posts) = %d, want 0", len(posts))
	}
}

func TestGormPostRepo_UpdateContent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	u := createUser(t, c, "author@example.com")
	p, err := c.Post.Create(ctx, PostCreateInput{Author: UserConnect{ID: u.ID}, Content: "before"})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}

	updated, err := c.Post.Update(ctx, PostWhereUnique{ID: p.ID}, PostUpdateInput{Content: strPtr("after")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Content != "after" {
		t.Errorf("Content = %q, want %q", updated.Content, "after")
	}
	if updated.AuthorID != u.ID {
		t.Errorf("AuthorID = %d, want %d", updated.AuthorID, u.ID)
	}
}

// TestGormPostRepo_UpdateEmptyData は更新データが空の場合に現在の値を返すことを検証する。
func TestGormPostRepo_UpdateEmptyData(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	u := createUser(t, c, "author@example.com")
	p, err := c.Post.Create(ctx, PostCreateInput{Author: UserConnect{ID: u.ID}, Content: "same"})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}

	got, err := c.Post.Update(ctx, PostWhereUnique{ID: p.ID}, PostUpdateInput{})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got.Content != "same" {
		t.Errorf("Content = %q, want %q", got.Content, "same")
	}
}

func TestGormPostRepo_UpdateComments(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	u := createUser(t, c, "author@example.com")
	p, err := c.Post.Create(ctx, PostCreateInput{Author: UserConnect{ID: u.ID}, Content: "post"})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}

	// 参照先の存在は検証されない
	got, err := c.Post.Update(ctx, PostWhereUnique{ID: p.ID}, PostUpdateInput{Comments: intPtr(12345)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got.Comments == nil || *got.Comments != 12345 {
		t.Errorf("Comments = %v, want 12345", got.Comments)
	}
}

func TestGormPostRepo_UpdateNotFound(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Post.Update(context.Background(), PostWhereUnique{ID: 404}, PostUpdateInput{Content: strPtr("x")})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestGormPostRepo_Delete(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	u := createUser(t, c, "author@example.com")
	p, err := c.Post.Create(ctx, PostCreateInput{Author: UserConnect{ID: u.ID}, Content: "bye"})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}

	deleted, err := c.Post.Delete(ctx, PostWhereUnique{ID: p.ID})
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted.ID != p.ID || deleted.Content != "bye" {
		t.Errorf("deleted = %+v, want post %d", deleted, p.ID)
	}

	got, err := c.Post.FindFirst(ctx, PostWhere{ID: intPtr(p.ID)})
	if err != nil {
		t.Fatalf("FindFirst returned error: %v", err)
	}
	if got != nil {
		t.Errorf("expected post to be deleted, got %+v", got)
	}

	if _, err := c.Post.Delete(ctx, PostWhereUnique{ID: p.ID}); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("second Delete err = %v, want ErrRecordNotFound", err)
	}
}

// TestGormPostRepo_DeleteRejectsExtraArguments は余分な引数付きの削除が拒否され、
// レコードが残ることを検証する。
func TestGormPostRepo_DeleteRejectsExtraArguments(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	u := createUser(t, c, "author@example.com")
	p, err := c.Post.Create(ctx, PostCreateInput{Author: UserConnect{ID: u.ID}, Content: "stay"})
	if err != nil {
		t.Fatalf("Post.Create returned error: %v", err)
	}

	_, err = c.Post.Delete(ctx, PostWhereUnique{ID: p.ID}, struct{ ID int32 }{ID: int32(p.ID)})
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("err = %v, want ErrInvalidArguments", err)
	}

	got, err := c.Post.FindFirst(ctx, PostWhere{ID: intPtr(p.ID)})
	if err != nil {
		t.Fatalf("FindFirst returned error: %v", err)
	}
	if got == nil {
		t.Fatal("post should not have been deleted")
	}
}

func TestGormPostRepo_FindManyByAuthor(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	a := createUser(t, c, "a@example.com")
	b := createUser(t, c, "b@example.com")

	for _, in := range []PostCreateInput{
		{Author: UserConnect{ID: a.ID}, Content: "a1"},
		{Author: UserConnect{ID: b.ID}, Content: "b1"},
		{Author: UserConnect{ID: a.ID}, Content: "a2"},
	} {
		if _, err := c.Post.Create(ctx, in); err != nil {
			t.Fatalf("Post.Create returned error: %v", err)
		}
	}

	posts, err := c.Post.FindMany(ctx, PostWhere{AuthorID: intPtr(a.ID)})
	if err != nil {
		t.Fatalf("FindMany returned error: %v", err)
	}
	var contents []string
	for _, p := range posts {
		contents = append(contents, p.Content)
	}
	if diff := cmp.Diff([]string{"a1", "a2"}, contents); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestNewClient_WiresRepositories(t *testing.T) {
	c := NewClient(nil)
	if _, ok := c.User.(*GormUserRepo); !ok {
		t.Errorf("User = %T, want *GormUserRepo", c.User)
	}
	if _, ok := c.Post.(*GormPostRepo); !ok {
		t.Errorf("Post = %T, want *GormPostRepo", c.Post)
	}
}
