package model

import "time"

// Post はユーザーが作成する投稿を表す。
type Post struct {
	ID       int `gorm:"primaryKey"`
	AuthorID int
	// Comments は投稿IDを1つだけ保持する。参照先の存在は検証しない。
	Comments  *int
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
