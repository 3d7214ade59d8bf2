// Package graph はGraphQLスキーマ、リゾルバ、Dateスカラーを提供する。
package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"runtime/debug"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hitoshi/gqlboard/internal/repository"
)

//go:embed schema.graphql
var schemaSDL string

// SDL は埋め込まれたスキーマ定義を返す。
func SDL() string {
	return schemaSDL
}

// Schema はリゾルバを結び付けた実行可能スキーマ。
type Schema struct {
	exec *graphql.Schema
	// 引数の型を調べるための型情報
	types *ast.Schema
}

// NewSchema はスキーマ定義を解析し、リゾルバを結び付けた実行可能スキーマを返す。
// スキーマとリゾルバの型が一致しない場合はエラーを返す。
func NewSchema(client *repository.Client, logger *slog.Logger) (*Schema, error) {
	if logger == nil {
		logger = slog.Default()
	}

	exec, err := graphql.ParseSchema(schemaSDL, NewResolver(client),
		graphql.Logger(&panicLogger{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema: %w", err)
	}

	types, loadErr := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
	if loadErr != nil {
		return nil, fmt.Errorf("failed to load GraphQL schema types: %s", loadErr.Error())
	}

	return &Schema{exec: exec, types: types}, nil
}

// Exec はクエリを実行する。Date型引数のインラインリテラルは実行前に変数へ移す。
func (s *Schema) Exec(ctx context.Context, query, operationName string, variables map[string]interface{}) *graphql.Response {
	query, variables, qerr := bindDateLiterals(s.types, query, operationName, variables)
	if qerr != nil {
		return &graphql.Response{Errors: []*gqlerrors.QueryError{qerr}}
	}
	return s.exec.Exec(ctx, query, operationName, variables)
}

// panicLogger はリゾルバ内のpanicをslogに記録する。
type panicLogger struct {
	logger *slog.Logger
}

// LogPanic はgraphql-goがpanicを回復した際に呼ばれる。
func (l *panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.ErrorContext(ctx, "graphql resolver panic recovered",
		slog.Any("panic", value),
		slog.String("stack", string(debug.Stack())),
	)
}
