package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hitoshi/gqlboard/internal/model"
)

// GormPostRepo はGORMを使用した投稿リポジトリ。
type GormPostRepo struct {
	db *gorm.DB
}

// NewGormPostRepo はGormPostRepoを生成する。
func NewGormPostRepo(db *gorm.DB) *GormPostRepo {
	return &GormPostRepo{db: db}
}

func (r *GormPostRepo) query(ctx context.Context, where PostWhere) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	if where.ID != nil {
		q = q.Where("id = ?", *where.ID)
	}
	if where.AuthorID != nil {
		q = q.Where("author_id = ?", *where.AuthorID)
	}
	return q.Order("id")
}

// FindMany は条件に一致する投稿をID昇順で返す。
func (r *GormPostRepo) FindMany(ctx context.Context, where PostWhere) ([]*model.Post, error) {
	var posts []*model.Post
	if err := r.query(ctx, where).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}
	return posts, nil
}

// FindFirst は条件に一致する最初の投稿を返す。見つからない場合はnilを返す。
func (r *GormPostRepo) FindFirst(ctx context.Context, where PostWhere) (*model.Post, error) {
	var posts []*model.Post
	if err := r.query(ctx, where).Limit(1).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return posts[0], nil
}

// Create は投稿を作成する。
// 関連付け先ユーザーの存在確認と作成を同一トランザクションで行う。
func (r *GormPostRepo) Create(ctx context.Context, data PostCreateInput) (*model.Post, error) {
	post := &model.Post{
		AuthorID: data.Author.ID,
		Content:  data.Content,
	}
	if data.CreatedAt != nil {
		post.CreatedAt = *data.CreatedAt
	}
	if data.UpdatedAt != nil {
		post.UpdatedAt = *data.UpdatedAt
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("id = ?", data.Author.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to look up author: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("connect author: no User with id %d: %w", data.Author.ID, ErrRecordNotFound)
		}

		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// Update は投稿を更新し、更新後のレコードを返す。
// 更新データが空の場合は現在のレコードをそのまま返す。
func (r *GormPostRepo) Update(ctx context.Context, where PostWhereUnique, data PostUpdateInput) (*model.Post, error) {
	var post model.Post

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.takeForWrite(tx, where, &post); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if data.Content != nil {
			updates["content"] = *data.Content
		}
		if data.Comments != nil {
			updates["comments"] = *data.Comments
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&model.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}

		post = model.Post{}
		if err := tx.Where("id = ?", where.ID).Take(&post).Error; err != nil {
			return fmt.Errorf("failed to reload post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// Delete は投稿を削除し、削除したレコードを返す。
func (r *GormPostRepo) Delete(ctx context.Context, where PostWhereUnique, extra ...any) (*model.Post, error) {
	if len(extra) > 0 {
		return nil, fmt.Errorf("post.delete: expected 1 argument, got %d: %w", len(extra)+1, ErrInvalidArguments)
	}

	var post model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.takeForWrite(tx, where, &post); err != nil {
			return err
		}
		if err := tx.Delete(&model.Post{}, post.ID).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// takeForWrite は更新・削除対象の投稿を読み込む。存在しない場合はErrRecordNotFoundを返す。
func (r *GormPostRepo) takeForWrite(tx *gorm.DB, where PostWhereUnique, post *model.Post) error {
	err := tx.Where("id = ?", where.ID).Take(post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("post %d: %w", where.ID, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*GormPostRepo)(nil)
