package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hitoshi/gqlboard/internal/model"
)

// GormUserRepo はGORMを使用したユーザーリポジトリ。
type GormUserRepo struct {
	db *gorm.DB
}

// NewGormUserRepo はGormUserRepoを生成する。
func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) query(ctx context.Context, where UserWhere) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if where.ID != nil {
		q = q.Where("id = ?", *where.ID)
	}
	if where.Email != nil {
		q = q.Where("email = ?", *where.Email)
	}
	return q.Order("id")
}

// FindMany は条件に一致するユーザーをID昇順で返す。
func (r *GormUserRepo) FindMany(ctx context.Context, where UserWhere) ([]*model.User, error) {
	var users []*model.User
	if err := r.query(ctx, where).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}

// FindFirst は条件に一致する最初のユーザーを返す。見つからない場合はnilを返す。
func (r *GormUserRepo) FindFirst(ctx context.Context, where UserWhere) (*model.User, error) {
	var users []*model.User
	if err := r.query(ctx, where).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// Create はユーザーを作成し、採番されたIDを含むレコードを返す。
func (r *GormUserRepo) Create(ctx context.Context, data UserCreateInput) (*model.User, error) {
	user := &model.User{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		Password:  data.Password,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*GormUserRepo)(nil)
