package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/extract-eval/internal/report"
	"github.com/stellarlinkco/extract-eval/internal/store"
)

// runView is the API shape of a run record, without the report blob.
type runView struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Dataset     string         `json:"dataset"`
	Model       string         `json:"model"`
	K           int            `json:"k"`
	Concurrency int            `json:"concurrency"`
	Dry         bool           `json:"dry"`
	Cached      bool           `json:"cached"`
	TotalItems  int            `json:"total_items"`
	FailedItems int            `json:"failed_items"`
	Summary     report.Summary `json:"summary"`
}

func newRunView(run *store.RunRecord) runView {
	return runView{
		ID:          run.ID,
		CreatedAt:   run.CreatedAt,
		Dataset:     run.Dataset,
		Model:       run.Model,
		K:           run.K,
		Concurrency: run.Concurrency,
		Dry:         run.Dry,
		Cached:      run.Cached,
		TotalItems:  run.TotalItems,
		FailedItems: run.FailedItems,
		Summary:     run.Summary,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newRunView(run))
}

func (s *Server) handleGetRunReport(c *gin.Context) {
	run, ok := s.lookupRun(c)
	if !ok {
		return
	}
	if run.Report == nil {
		respondError(c, http.StatusNotFound, fmt.Errorf("run %q has no stored report", run.ID))
		return
	}
	c.JSON(http.StatusOK, run.Report)
}

func (s *Server) lookupRun(c *gin.Context) (*store.RunRecord, bool) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return nil, false
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return nil, false
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, err)
		return nil, false
	}
	return run, true
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}
