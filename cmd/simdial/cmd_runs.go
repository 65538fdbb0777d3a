package main

import (
	"context"
	"fmt"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/spf13/cobra"

	simconfig "github.com/voicetyped/simdial/config"
	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/store"
)

// runBrowser is the read side of the corpus store.
type runBrowser interface {
	GetRun(ctx context.Context, id string) (*store.CorpusRun, error)
	ListRuns(ctx context.Context, limit int) ([]store.CorpusRun, error)
	ListDialogs(ctx context.Context, runID string, limit, offset int) ([]store.DialogRecord, error)
}

// openRuns connects to the datastore configured in the environment.
var openRuns = func(ctx context.Context) (context.Context, runBrowser, func(), error) {
	cfg, err := config.LoadWithOIDC[simconfig.GeneratorConfig](ctx)
	if err != nil {
		return ctx, nil, nil, err
	}
	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("simdial"),
		frame.WithDatastore(),
	)
	repo := store.NewRepository(srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"))
	return ctx, repo, func() { srv.Stop(ctx) }, nil
}

var runsFlags struct {
	limit   int
	dialogs int
	offset  int
}

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List persisted corpus runs, or show the dialogs of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.IntVar(&runsFlags.limit, "limit", 20, "Maximum number of runs to list")
	f.IntVar(&runsFlags.dialogs, "dialogs", 10, "Maximum number of dialogs to show for a run")
	f.IntVar(&runsFlags.offset, "offset", 0, "Index of the first dialog to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx, runs, stop, err := openRuns(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		list, err := runs.ListRuns(ctx, runsFlags.limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		for _, r := range list {
			fmt.Fprintf(out, "%-20s %-9s %-12s %-10s size=%d seed=%s\n",
				r.ID, r.Status, r.Domain, r.Complexity, r.Size, r.Seed)
		}
		return nil
	}

	run, err := runs.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("run %s: %w", args[0], err)
	}
	fmt.Fprintf(out, "run %s: %s %s/%s size=%d seed=%s\n",
		run.ID, run.Status, run.Domain, run.Complexity, run.Size, run.Seed)
	if run.Error != "" {
		fmt.Fprintf(out, "error: %s\n", run.Error)
	}
	if run.Status == store.StatusCompleted {
		fmt.Fprintln(out, "stats:", corpus.Stats(run.Stats).String())
	}

	records, err := runs.ListDialogs(ctx, run.ID, runsFlags.dialogs, runsFlags.offset)
	if err != nil {
		return fmt.Errorf("list dialogs: %w", err)
	}
	for _, rec := range records {
		fmt.Fprintf(out, "  dialog %d: turns=%d queries=%d forced=%t\n",
			rec.Position, rec.Turns, rec.Queries, rec.Forced)
	}
	return nil
}
