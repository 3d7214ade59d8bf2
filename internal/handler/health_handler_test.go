package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/gqlboard/internal/model"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	return m.err
}

func TestHealthHandler_OK(t *testing.T) {
	h := NewHealthHandler(&mockPinger{})

	w := httptest.NewRecorder()
	h.Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

// TestHealthHandler_DBDown はDBに接続できない場合に503を返すことを検証する。
func TestHealthHandler_DBDown(t *testing.T) {
	h := NewHealthHandler(&mockPinger{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	h.Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if body := decodeAPIError(t, w); body.Code != model.ErrCodeUnavailable {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnavailable)
	}
}
