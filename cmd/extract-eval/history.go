package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/extract-eval/internal/store"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:               "history",
		Short:             "Show past evaluation runs",
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, st, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")

	cmd.AddCommand(newHistoryShowCmd(st))
	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, st, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, st *cliState, limit int) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	runs, err := stor.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN_ID\tCREATED\tDATASET\tMODEL\tK\tITEMS\tFAILED\tF1\tMAP")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.4f\t%.4f\n",
			r.ID,
			formatTime(r.CreatedAt),
			r.Dataset,
			r.Model,
			r.K,
			r.TotalItems,
			r.FailedItems,
			r.Summary.F1,
			r.Summary.MAP,
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, st *cliState, runID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("history: missing run id")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	run, err := stor.GetRun(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("history: run %q not found", runID)
		}
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run: %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Created: %s\n", formatTime(run.CreatedAt))
	_, _ = fmt.Fprintf(out, "Dataset: %s model=%s k=%d concurrency=%d dry=%t cached=%t\n",
		run.Dataset, run.Model, run.K, run.Concurrency, run.Dry, run.Cached)
	_, _ = fmt.Fprintf(out, "Items: %d failed=%d\n", run.TotalItems, run.FailedItems)

	s := run.Summary
	_, _ = fmt.Fprintf(out, "Summary: precision=%.4f recall=%.4f f1=%.4f map=%.4f mrr=%.4f ndcg=%.4f avg_ms=%.1f\n",
		s.Precision, s.Recall, s.F1, s.MAP, s.MRR, s.NDCG, s.AvgMS)

	if run.Report == nil || len(run.Report.Rows) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tP\tR\tF1\tAP\tRR\tNDCG\tMS\tCACHE\tERROR")
	for _, row := range run.Report.Rows {
		if row.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\t-\t%s\n", row.Name, row.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%d\t%s\t\n",
			row.Name, row.Precision, row.Recall, row.F1, row.AP, row.MRR, row.NDCG,
			row.MS, cacheLabel(row.Cache))
	}
	return tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
