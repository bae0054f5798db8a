package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

func TestLoggingKeepsFlusherReachable(t *testing.T) {
	var flushed bool
	handler := Logging(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("expected wrapped writer to implement http.Flusher")
		}
		_, _ = w.Write([]byte("data"))
		f.Flush()
		flushed = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if !flushed || !rec.Flushed {
		t.Fatal("expected flush to reach the underlying recorder")
	}
}

func TestRequestIDSanitizesHeader(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id with spaces")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got == "bad id with spaces" || got == "" {
		t.Fatalf("expected a fresh request id, got %q", got)
	}
}

func TestRecovererReturnsInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
