package repository

import "gorm.io/gorm"

// NewClient はGORM接続からデータアクセスクライアントを生成する。
func NewClient(db *gorm.DB) *Client {
	return &Client{
		User: NewGormUserRepo(db),
		Post: NewGormPostRepo(db),
	}
}
