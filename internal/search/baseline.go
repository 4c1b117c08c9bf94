package search

import (
	"context"
	"regexp"
	"strings"
	"time"
)

var termSplitRe = regexp.MustCompile(`[;,\s]+`)

// Baseline is the dry-run search capability: a deterministic heuristic that
// extracts literal occurrences of the query terms from the content, capped at
// k matches. It lets the harness run end to end without external calls.
type Baseline struct{}

func (Baseline) Name() string { return "baseline" }

func (Baseline) Search(_ context.Context, req *Request) (*Result, error) {
	start := time.Now()

	k := req.K
	if k <= 0 {
		k = 10
	}

	var predicted []string
	for _, term := range QueryTerms(req.Query) {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		for _, m := range re.FindAllString(req.Content, -1) {
			if len(predicted) >= k {
				break
			}
			predicted = append(predicted, m)
		}
		if len(predicted) >= k {
			break
		}
	}
	if predicted == nil {
		predicted = []string{}
	}

	return &Result{
		Predicted: predicted,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}

// QueryTerms splits a query on semicolons, commas, or whitespace, dropping
// empties.
func QueryTerms(query string) []string {
	var out []string
	for _, t := range termSplitRe.Split(query, -1) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
