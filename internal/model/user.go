// Package model はドメインモデルを定義する。
package model

// User はサインアップで作成されるユーザーを表す。
// パスワードは受け取った値をそのまま保持する。
type User struct {
	ID        int `gorm:"primaryKey"`
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthPayload はsignUp/loginの結果として返す認証情報。
// Tokenは発行されないため常にnil。
type AuthPayload struct {
	Token *string
	User  *User
}
