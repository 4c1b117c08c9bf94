package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/extract-eval/internal/store"
)

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("EXTRACT_EVAL_API_KEY", "sekrit")
	t.Setenv("EXTRACT_EVAL_DISABLE_AUTH", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	seedRun(t, st, "run_1", time.Now().UTC())

	s, err := NewServer(nil, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/api/runs")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid key: got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("EXTRACT_EVAL_CORS_ORIGINS", "http://allowed.example")

	r := gin.New()
	r.Use(corsMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://allowed.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.example" {
		t.Fatalf("allowed origin header: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("denied origin header: got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://allowed.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: got %d", rec.Code)
	}
}

func TestParseCORSOrigins(t *testing.T) {
	t.Parallel()

	if got := parseCORSOrigins(""); got != nil {
		t.Fatalf("empty: got %#v", got)
	}
	if got := parseCORSOrigins(", ,"); got != nil {
		t.Fatalf("blank entries: got %#v", got)
	}
	if got := parseCORSOrigins("a, *"); len(got) != 1 {
		t.Fatalf("wildcard: got %#v", got)
	}
}
