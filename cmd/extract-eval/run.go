package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/extract-eval/internal/dataset"
	"github.com/stellarlinkco/extract-eval/internal/fingerprint"
	"github.com/stellarlinkco/extract-eval/internal/harness"
	"github.com/stellarlinkco/extract-eval/internal/report"
	"github.com/stellarlinkco/extract-eval/internal/search"
	"github.com/stellarlinkco/extract-eval/internal/store"
)

type runOptions struct {
	dataset     string
	k           int
	model       string
	concurrency int
	dry         bool
	nocache     bool
	saveRaw     bool
	out         string
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run an extraction evaluation over a dataset",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "path to dataset JSON file (default: bundled sample)")
	cmd.Flags().IntVar(&opts.k, "k", -1, "rank cutoff (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", -1, "concurrent items (overrides config)")
	cmd.Flags().BoolVar(&opts.dry, "dry", false, "use the offline baseline searcher, no credentials needed")
	cmd.Flags().BoolVar(&opts.nocache, "nocache", false, "bypass the fingerprint cache")
	cmd.Flags().BoolVar(&opts.saveRaw, "saveRaw", false, "keep raw model output in cache entries")
	cmd.Flags().StringVar(&opts.out, "out", "", "report output path (defaults under report dir)")

	return cmd
}

func runEval(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	k := st.cfg.Evaluation.K
	if opts.k >= 0 {
		k = opts.k
	}
	if k < 1 {
		k = 1
	}

	concurrency := st.cfg.Evaluation.Concurrency
	if opts.concurrency >= 0 {
		concurrency = opts.concurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}

	datasetPath := strings.TrimSpace(opts.dataset)
	var items []dataset.Item
	var err error
	if datasetPath == "" {
		datasetPath = "sample"
		items = dataset.Sample()
	} else {
		items, err = dataset.Load(datasetPath)
		if err != nil {
			return err
		}
	}

	searcher, modelLabel, err := buildSearcher(st, opts)
	if err != nil {
		return err
	}

	useCache := !opts.nocache && !st.cfg.Cache.Disabled
	var cache *fingerprint.Store
	if useCache {
		cache, err = fingerprint.NewStore(st.cfg.Cache.Dir)
		if err != nil {
			return err
		}
	}

	h, err := harness.New(searcher, cache, harness.Options{
		K:           k,
		Concurrency: concurrency,
		Model:       modelLabel,
		Dataset:     datasetPath,
		Dry:         opts.dry,
		NoCache:     !useCache,
		SaveRaw:     opts.saveRaw,
		Progress: func(name string, fromCache bool, err error) {
			switch {
			case err != nil:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: error: %v\n", name, err)
			case fromCache:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: ok (cache)\n", name)
			default:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: ok\n", name)
			}
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := h.Evaluate(ctx, items)
	if err != nil {
		return err
	}

	printReport(cmd, rep)

	outPath := strings.TrimSpace(opts.out)
	if outPath == "" {
		outPath = report.DefaultPath(st.cfg.Report.Dir, rep.TS)
	}
	if err := report.Write(outPath, rep); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report written: %s\n", outPath)

	runID, err := saveRunToStore(cmd.Context(), st, rep)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Run saved: %s\n", runID)

	return nil
}

// buildSearcher picks the baseline in dry mode and the configured provider
// otherwise, returning the model label recorded in reports and cache keys.
func buildSearcher(st *cliState, opts *runOptions) (search.Searcher, string, error) {
	if opts.dry {
		return search.Baseline{}, "baseline", nil
	}

	model := strings.TrimSpace(opts.model)
	if model != "" {
		for name, pcfg := range st.cfg.LLM.Providers {
			pcfg.Model = model
			st.cfg.LLM.Providers[name] = pcfg
		}
	}

	var copts []search.ClaudeOption
	if st.cfg.Evaluation.Timeout > 0 {
		copts = append(copts, search.WithClaudeTimeout(st.cfg.Evaluation.Timeout))
	}

	searcher, err := search.FromConfig(st.cfg, copts...)
	if err != nil {
		return nil, "", fmt.Errorf("run: %w", err)
	}

	label := model
	if label == "" {
		if pcfg, ok := st.cfg.LLM.Providers[searcher.Name()]; ok && strings.TrimSpace(pcfg.Model) != "" {
			label = strings.TrimSpace(pcfg.Model)
		} else {
			label = searcher.Name()
		}
	}
	return searcher, label, nil
}

func printReport(cmd *cobra.Command, rep *report.Report) {
	out := cmd.OutOrStdout()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tP\tR\tF1\tAP\tRR\tNDCG\tMS\tCACHE\tERROR")
	for _, row := range rep.Rows {
		if row.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\t-\t%s\n", row.Name, row.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%d\t%s\t\n",
			row.Name, row.Precision, row.Recall, row.F1, row.AP, row.MRR, row.NDCG,
			row.MS, cacheLabel(row.Cache))
	}
	_ = tw.Flush()

	s := rep.Summary
	_, _ = fmt.Fprintf(out, "\nSummary: precision=%.4f recall=%.4f f1=%.4f map=%.4f mrr=%.4f ndcg=%.4f avg_ms=%.1f\n",
		s.Precision, s.Recall, s.F1, s.MAP, s.MRR, s.NDCG, s.AvgMS)
}

func cacheLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func saveRunToStore(ctx context.Context, st *cliState, rep *report.Report) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return "", fmt.Errorf("run: open store: %w", err)
	}
	defer stor.Close()

	runID, err := newRunID()
	if err != nil {
		return "", fmt.Errorf("run: generate run id: %w", err)
	}

	failed := 0
	for _, row := range rep.Rows {
		if row.Error != "" {
			failed++
		}
	}

	record := &store.RunRecord{
		ID:          runID,
		CreatedAt:   rep.TS,
		Dataset:     rep.Config.Dataset,
		Model:       rep.Config.Model,
		K:           rep.Config.K,
		Concurrency: rep.Config.Concurrency,
		Dry:         rep.Config.Dry,
		Cached:      rep.Config.Cache,
		TotalItems:  len(rep.Rows),
		FailedItems: failed,
		Summary:     rep.Summary,
		Report:      rep,
	}
	if err := stor.SaveRun(ctx, record); err != nil {
		return "", fmt.Errorf("run: save run: %w", err)
	}
	return runID, nil
}

func newRunID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}
