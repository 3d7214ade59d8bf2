package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQueryThreshold を超えたクエリはWARNで記録する。
const slowQueryThreshold = 200 * time.Millisecond

// GormLogger はGORMのログをslogのJSON構造化ログに流すアダプタ。
type GormLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
}

// NewGormLogger はslog.Loggerを出力先とするGORMロガーを生成する。
// デフォルトのログレベルはWarn（エラーとスロークエリのみ）。
func NewGormLogger(l *slog.Logger) *GormLogger {
	return &GormLogger{logger: l, level: logger.Warn}
}

// LogMode はログレベルを変更したコピーを返す。
func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

// Info はINFOログを出力する。
func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Info {
		g.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Warn はWARNログを出力する。
func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Warn {
		g.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Error はERRORログを出力する。
func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Error {
		g.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace は実行されたSQLを記録する。
// gorm.ErrRecordNotFoundはリポジトリ側でnil扱いにするためエラーとして記録しない。
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	durationMs := float64(elapsed.Nanoseconds()) / float64(time.Millisecond)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= logger.Error:
		sql, rows := fc()
		g.logger.ErrorContext(ctx, "sql_error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Float64("duration_ms", durationMs),
			slog.String("error", err.Error()),
		)
	case elapsed > slowQueryThreshold && g.level >= logger.Warn:
		sql, rows := fc()
		g.logger.WarnContext(ctx, "sql_slow_query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Float64("duration_ms", durationMs),
		)
	case g.level >= logger.Info:
		sql, rows := fc()
		g.logger.DebugContext(ctx, "sql",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Float64("duration_ms", durationMs),
		)
	}
}

// compile-time interface check
var _ logger.Interface = (*GormLogger)(nil)
