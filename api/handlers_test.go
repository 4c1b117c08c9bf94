package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/extract-eval/internal/report"
	"github.com/stellarlinkco/extract-eval/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("EXTRACT_EVAL_API_KEY", "")
	t.Setenv("EXTRACT_EVAL_DISABLE_AUTH", "true")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	s, err := NewServer(nil, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, st
}

func seedRun(t *testing.T, st store.Store, id string, createdAt time.Time) {
	t.Helper()
	err := st.SaveRun(context.Background(), &store.RunRecord{
		ID:          id,
		CreatedAt:   createdAt,
		Dataset:     "ds.json",
		Model:       "claude",
		K:           10,
		Concurrency: 2,
		TotalItems:  2,
		Summary:     report.Summary{Precision: 0.5, Recall: 0.5, F1: 0.5},
		Report: &report.Report{
			Config: report.Config{Dataset: "ds.json", Model: "claude", K: 10},
			Rows:   []report.Row{{Name: "a", K: 10, Precision: 1}},
			TS:     createdAt,
		},
	})
	if err != nil {
		t.Fatalf("SaveRun %s: %v", id, err)
	}
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body: got %#v", body)
	}
}

func TestHandleListRuns(t *testing.T) {
	s, st := newTestServer(t)
	base := time.Now().UTC().Truncate(time.Millisecond)
	seedRun(t, st, "run_old", base)
	seedRun(t, st, "run_new", base.Add(time.Minute))

	rec := doRequest(s, http.MethodGet, "/api/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var views []runView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len: got %d", len(views))
	}
	if views[0].ID != "run_new" || views[1].ID != "run_old" {
		t.Fatalf("order: got %s, %s", views[0].ID, views[1].ID)
	}

	rec = doRequest(s, http.MethodGet, "/api/runs?limit=1")
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode limited: %v", err)
	}
	if len(views) != 1 || views[0].ID != "run_new" {
		t.Fatalf("limited list: got %#v", views)
	}

	rec = doRequest(s, http.MethodGet, "/api/runs?limit=zero")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status: got %d", rec.Code)
	}
}

func TestHandleGetRun(t *testing.T) {
	s, st := newTestServer(t)
	seedRun(t, st, "run_1", time.Now().UTC())

	rec := doRequest(s, http.MethodGet, "/api/runs/run_1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var view runView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID != "run_1" || view.Model != "claude" || view.Summary.F1 != 0.5 {
		t.Fatalf("view: got %#v", view)
	}

	rec = doRequest(s, http.MethodGet, "/api/runs/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status: got %d", rec.Code)
	}
}

func TestHandleGetRunReport(t *testing.T) {
	s, st := newTestServer(t)
	seedRun(t, st, "run_1", time.Now().UTC())

	rec := doRequest(s, http.MethodGet, "/api/runs/run_1/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var rep report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.Rows) != 1 || rep.Rows[0].Name != "a" {
		t.Fatalf("report: got %#v", rep)
	}

	rec = doRequest(s, http.MethodGet, "/api/runs/nope/report")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status: got %d", rec.Code)
	}
}

func TestNewServerRequiresAuthConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("EXTRACT_EVAL_API_KEY", "")
	t.Setenv("EXTRACT_EVAL_DISABLE_AUTH", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	if _, err := NewServer(nil, st); err == nil {
		t.Fatalf("expected auth configuration error")
	}
}
