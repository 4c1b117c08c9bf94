// Package harness drives a dataset through cache, search, and metrics, and
// folds the per-item results into an evaluation report.
package harness

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stellarlinkco/extract-eval/internal/dataset"
	"github.com/stellarlinkco/extract-eval/internal/fingerprint"
	"github.com/stellarlinkco/extract-eval/internal/metrics"
	"github.com/stellarlinkco/extract-eval/internal/pool"
	"github.com/stellarlinkco/extract-eval/internal/report"
	"github.com/stellarlinkco/extract-eval/internal/search"
)

// Options configure one evaluation run.
type Options struct {
	K           int
	Concurrency int
	Model       string
	Dataset     string // config snapshot only
	Dry         bool   // config snapshot only
	NoCache     bool   // disables cache lookup and store
	SaveRaw     bool   // keep the undecoded model output in cache entries

	// Progress, when set, is called once per item as it resolves. It may be
	// called from concurrent workers.
	Progress func(name string, fromCache bool, err error)
}

// Prediction is the immutable per-item record produced before scoring.
type Prediction struct {
	Name      string
	Predicted []string
	ElapsedMs int64
	FromCache bool
}

// Harness wires a search capability and an optional fingerprint store.
type Harness struct {
	searcher search.Searcher
	cache    *fingerprint.Store
	opts     Options

	group singleflight.Group
}

// New builds a harness. cache may be nil when caching is disabled.
func New(searcher search.Searcher, cache *fingerprint.Store, opts Options) (*Harness, error) {
	if searcher == nil {
		return nil, errors.New("harness: nil searcher")
	}
	if opts.K < 1 {
		opts.K = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.NoCache {
		cache = nil
	}
	return &Harness{searcher: searcher, cache: cache, opts: opts}, nil
}

// Evaluate runs every item through cache -> search -> metrics and returns the
// report. Per-item failures become error rows; only a nil context or empty
// dataset is an error here.
func (h *Harness) Evaluate(ctx context.Context, items []dataset.Item) (*report.Report, error) {
	if h == nil {
		return nil, errors.New("harness: nil harness")
	}
	if ctx == nil {
		return nil, errors.New("harness: nil context")
	}
	if len(items) == 0 {
		return nil, errors.New("harness: empty dataset")
	}

	outcomes := pool.Run(ctx, items, h.opts.Concurrency, h.runItem)

	rows := make([]report.Row, 0, len(items))
	var sums struct {
		precision, recall, f1, ap, rr, ndcg float64
		ms                                  int64
		scored                              int
	}

	for i, out := range outcomes {
		item := items[i]
		if out.Err != nil {
			rows = append(rows, report.Row{Name: item.Name, Error: out.Err.Error()})
			continue
		}

		p := out.Value
		m := metrics.Score(p.Predicted, item.Truth, h.opts.K)
		rows = append(rows, report.Row{
			Name:      item.Name,
			K:         h.opts.K,
			Precision: report.Round(m.Precision, 3),
			Recall:    report.Round(m.Recall, 3),
			F1:        report.Round(m.F1, 3),
			AP:        report.Round(m.AP, 3),
			MRR:       report.Round(m.RR, 3),
			NDCG:      report.Round(m.NDCG, 3),
			MS:        p.ElapsedMs,
			Cache:     p.FromCache,
		})

		sums.precision += m.Precision
		sums.recall += m.Recall
		sums.f1 += m.F1
		sums.ap += m.AP
		sums.rr += m.RR
		sums.ndcg += m.NDCG
		sums.ms += p.ElapsedMs
		sums.scored++
	}

	n := float64(sums.scored)
	if n < 1 {
		n = 1
	}

	return &report.Report{
		Config: report.Config{
			Dataset:     h.opts.Dataset,
			Model:       h.opts.Model,
			K:           h.opts.K,
			Concurrency: h.opts.Concurrency,
			Dry:         h.opts.Dry,
			Cache:       h.cache != nil,
			SaveRaw:     h.opts.SaveRaw,
		},
		Rows: rows,
		Summary: report.Summary{
			Precision: report.Round(sums.precision/n, 4),
			Recall:    report.Round(sums.recall/n, 4),
			F1:        report.Round(sums.f1/n, 4),
			MAP:       report.Round(sums.ap/n, 4),
			MRR:       report.Round(sums.rr/n, 4),
			NDCG:      report.Round(sums.ndcg/n, 4),
			AvgMS:     report.Round(float64(sums.ms)/n, 1),
		},
		TS: time.Now().UTC(),
	}, nil
}

// runItem resolves one item to a prediction: cache hit, or a search call
// coalesced per fingerprint so concurrent workers with identical requests
// share one in-flight call.
func (h *Harness) runItem(ctx context.Context, _ int, item dataset.Item) (Prediction, error) {
	corpus := item.Content.Corpus()
	key := fingerprint.Key(corpus, item.Query, h.opts.Model, h.opts.K)

	if h.cache != nil {
		if e, ok := h.cache.Get(key); ok {
			h.progress(item.Name, true, nil)
			return Prediction{
				Name:      item.Name,
				Predicted: truncate(e.Predicted, h.opts.K),
				ElapsedMs: e.ElapsedMs,
				FromCache: true,
			}, nil
		}
	}

	v, err, _ := h.group.Do(key, func() (any, error) {
		return h.searcher.Search(ctx, &search.Request{
			Content: corpus,
			Query:   item.Query,
			Model:   h.opts.Model,
			K:       h.opts.K,
		})
	})
	if err != nil {
		h.progress(item.Name, false, err)
		return Prediction{}, err
	}
	res := v.(*search.Result)

	predicted := truncate(res.Predicted, h.opts.K)
	if predicted == nil {
		predicted = []string{}
	}

	if h.cache != nil {
		entry := &fingerprint.Entry{Predicted: predicted, ElapsedMs: res.ElapsedMs}
		if h.opts.SaveRaw {
			entry.Raw = res.Raw
		}
		// A failed write never fails the item; the next run recomputes.
		_ = h.cache.Put(key, entry)
	}

	h.progress(item.Name, false, nil)
	return Prediction{
		Name:      item.Name,
		Predicted: predicted,
		ElapsedMs: res.ElapsedMs,
	}, nil
}

func (h *Harness) progress(name string, fromCache bool, err error) {
	if h.opts.Progress != nil {
		h.opts.Progress(name, fromCache, err)
	}
}

func truncate(s []string, k int) []string {
	if k > 0 && len(s) > k {
		return s[:k]
	}
	return s
}
