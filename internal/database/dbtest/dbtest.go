// Package dbtest はテスト用のSQLiteデータベースを準備するヘルパーを提供する。
package dbtest

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/hitoshi/gqlboard/internal/database"
)

// URL はテストごとの一時ディレクトリに置くSQLiteデータベースのURLを返す。
func URL(t testing.TB) string {
	t.Helper()
	return "sqlite3://" + filepath.Join(t.TempDir(), "gqlboard_test.db")
}

// New はマイグレーション適用済みのSQLiteデータベースを開いて返す。
// 接続はテスト終了時に閉じられる。
func New(t testing.TB) *gorm.DB {
	t.Helper()

	url := URL(t)
	if err := database.RunMigrations(url); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := database.OpenGorm(url, database.Options{
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}
