// Package search defines the extraction capability the harness evaluates: a
// function from (corpus, query) to an ordered list of extracted strings,
// implemented by a hosted model or by a deterministic baseline.
package search

import "context"

// Request describes one extraction call.
type Request struct {
	Content string
	Query   string
	Model   string
	K       int
}

// Result is an ordered prediction list plus the wall-clock cost of producing
// it. Raw carries the undecoded model output when capture is enabled.
type Result struct {
	Predicted []string
	ElapsedMs int64
	Raw       string
}

// Searcher is the injected search capability.
type Searcher interface {
	Name() string
	Search(ctx context.Context, req *Request) (*Result, error)
}
