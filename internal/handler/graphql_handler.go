package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/hitoshi/gqlboard/internal/metrics"
	"github.com/hitoshi/gqlboard/internal/middleware"
	"github.com/hitoshi/gqlboard/internal/model"
)

// リクエストボディの上限サイズ
const maxRequestBodyBytes = 1 << 20

// メトリクスのoperation_typeラベル値
const (
	operationQuery    = "query"
	operationMutation = "mutation"
	operationUnknown  = "unknown"
)

// Executor はGraphQLクエリを実行するインターフェース。*graph.Schemaが満たす。
type Executor interface {
	Exec(ctx context.Context, queryString string, operationName string, variables map[string]interface{}) *graphql.Response
}

// graphQLRequest はGraphQL over HTTPのリクエスト形式。
type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler はGraphQLエンドポイントのHTTPハンドラー。
type GraphQLHandler struct {
	executor Executor
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewGraphQLHandler はGraphQLHandlerを生成する。metricsはnilでもよい。
func NewGraphQLHandler(executor Executor, mc metrics.MetricsCollector, logger *slog.Logger) *GraphQLHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphQLHandler{
		executor: executor,
		metrics:  mc,
		logger:   logger,
	}
}

// ServeHTTP はGraphQLリクエストを実行し、{data, errors}形式のJSONを返す。
// GET /?query=...&operationName=...&variables=...
// POST / {"query": ..., "operationName": ..., "variables": ...}
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		req graphQLRequest
		err error
	)
	switch r.Method {
	case http.MethodGet:
		req, err = decodeGetRequest(r)
	case http.MethodPost:
		req, err = decodePostRequest(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError(r.Method))
		return
	}
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(err.Error()))
		return
	}

	opType := operationType(req.Query, req.OperationName)

	// GETはクエリ操作のみ。種別を特定できない文書もPOSTに限る
	if r.Method == http.MethodGet && opType != operationQuery {
		w.Header().Set("Allow", "POST")
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, &model.APIError{
			Code:     model.ErrCodeMethodNotAllowed,
			Message:  "only query operations can be sent with GET",
			Category: "request",
			Action:   "Use POST for mutations and for documents that cannot be parsed.",
		})
		return
	}

	start := time.Now()
	resp := h.executor.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	elapsed := time.Since(start)

	if h.metrics != nil {
		h.metrics.RecordOperation(opType)
		h.metrics.RecordLatency(opType, elapsed)
		h.metrics.RecordOperationErrors(opType, len(resp.Errors))
	}

	if len(resp.Errors) > 0 {
		h.logger.WarnContext(r.Context(), "graphql_errors",
			slog.String("operation_name", req.OperationName),
			slog.String("operation_type", opType),
			slog.Int("error_count", len(resp.Errors)),
			slog.String("first_error", resp.Errors[0].Message),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode graphql response",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// decodeGetRequest はクエリパラメータからリクエストを組み立てる。
// variablesはJSON文字列として受け取る。
func decodeGetRequest(r *http.Request) (graphQLRequest, error) {
	q := r.URL.Query()
	req := graphQLRequest{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}

	if v := q.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return req, errors.New("variables is not a JSON object")
		}
	}

	if strings.TrimSpace(req.Query) == "" {
		return req, errors.New("missing query")
	}
	return req, nil
}

// decodePostRequest はJSONボディからリクエストを組み立てる。
func decodePostRequest(w http.ResponseWriter, r *http.Request) (graphQLRequest, error) {
	var req graphQLRequest

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return req, fmt.Errorf("unsupported content type %q", ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return req, errors.New("request body too large")
		case errors.Is(err, io.EOF):
			return req, errors.New("empty request body")
		default:
			return req, errors.New("malformed JSON body")
		}
	}

	if strings.TrimSpace(req.Query) == "" {
		return req, errors.New("missing query")
	}
	return req, nil
}

// operationType は実行される操作の種別をメトリクスとGETの可否判定のために求める。
// 構文エラーや該当する操作がない場合はoperationUnknownを返す。
func operationType(query, operationName string) string {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return operationUnknown
	}

	var op *ast.OperationDefinition
	switch {
	case operationName != "":
		op = doc.Operations.ForName(operationName)
	case len(doc.Operations) == 1:
		op = doc.Operations[0]
	}
	if op == nil {
		return operationUnknown
	}

	switch op.Operation {
	case ast.Query:
		return operationQuery
	case ast.Mutation:
		return operationMutation
	default:
		return operationUnknown
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}
