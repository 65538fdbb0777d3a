// Package runtime runs a complete corpus job: generation, output files,
// statistics, persistence, events and the completion hook.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"
	"github.com/rs/xid"

	"github.com/voicetyped/simdial/config"
	"github.com/voicetyped/simdial/pkg/complexity"
	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
	"github.com/voicetyped/simdial/pkg/events"
	"github.com/voicetyped/simdial/pkg/generator"
	"github.com/voicetyped/simdial/pkg/hooks"
	"github.com/voicetyped/simdial/pkg/store"
)

// ErrUnknownFormat is returned for an output format other than json, text
// or tsv.
var ErrUnknownFormat = errors.New("unknown output format")

// RunStore persists corpus runs. *store.Repository implements it.
type RunStore interface {
	CreateRun(ctx context.Context, run *store.CorpusRun) error
	CompleteRun(ctx context.Context, run *store.CorpusRun, stats corpus.Stats, records []*store.DialogRecord) error
	FailRun(ctx context.Context, run *store.CorpusRun, cause error) error
}

// Job describes one corpus run.
type Job struct {
	Domain    *domain.Domain
	Profile   *complexity.Profile
	Size      int
	Seed      uint64
	OutputDir string
	Formats   []string
	Workers   int
	Hook      hooks.HookConfig
}

// Result is the outcome of a successful job.
type Result struct {
	RunID   string
	Dialogs []*dialog.Dialog
	Stats   corpus.Stats
	Files   []string
}

// Runner wires a generator to its outputs. Every dependency except the
// output directory is optional.
type Runner struct {
	pub   *events.Publisher
	pool  workerpool.WorkerPool
	runs  RunStore
	hooks *hooks.Executor
}

// NewRunner creates a runner. Any argument may be nil.
func NewRunner(pub *events.Publisher, pool workerpool.WorkerPool, runs RunStore, hookExec *hooks.Executor) *Runner {
	return &Runner{pub: pub, pool: pool, runs: runs, hooks: hookExec}
}

// Run executes a job.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	for _, f := range job.Formats {
		if extension(f) == "" {
			return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
		}
	}

	runID := xid.New().String()
	log := slog.With(slog.String("run_id", runID),
		slog.String("domain", job.Domain.Name()),
		slog.String("complexity", job.Profile.Name))

	r.pub.BeginRun(runID, events.RunInfo{
		Domain:     job.Domain.Name(),
		Complexity: job.Profile.Name,
		Seed:       job.Seed,
	})
	defer r.pub.EndRun(runID)

	opts := []generator.Option{
		generator.WithWorkers(job.Workers),
		generator.WithPublisher(r.pub, runID),
	}
	if r.pool != nil {
		opts = append(opts, generator.WithWorkerPool(r.pool))
	}
	gen, err := generator.New(job.Domain, job.Profile, opts...)
	if err != nil {
		return nil, err
	}

	var run *store.CorpusRun
	if r.runs != nil {
		run = store.NewRun(runID, job.Domain.Name(), job.Profile.Name, job.Size, job.Seed)
		if err := r.runs.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	r.emit(ctx, events.CorpusStarted, runID, &events.CorpusStartedData{
		Domain:     job.Domain.Name(),
		Complexity: job.Profile.Name,
		Size:       job.Size,
		Seed:       job.Seed,
	})
	log.InfoContext(ctx, "corpus run started", slog.Int("size", job.Size), slog.Uint64("seed", job.Seed))

	res, err := r.generate(ctx, gen, job, runID, run)
	if err != nil {
		r.fail(ctx, runID, run, err)
		return nil, err
	}

	log.InfoContext(ctx, "corpus run completed", slog.String("stats", res.Stats.String()))
	r.emit(ctx, events.CorpusCompleted, runID, &events.CorpusCompletedData{
		Dialogs:  res.Stats.Dialogs,
		AvgTurns: res.Stats.AvgTurns,
		MaxTurns: res.Stats.MaxTurns,
		Forced:   res.Stats.Forced,
		Output:   job.OutputDir,
	})

	if job.Hook.Enabled() && r.hooks != nil {
		_, err := r.hooks.Notify(ctx, job.Hook, hooks.CompletionRequest{
			RunID:      runID,
			Domain:     job.Domain.Name(),
			Complexity: job.Profile.Name,
			Size:       job.Size,
			Seed:       job.Seed,
			Output:     res.Files,
			Stats:      res.Stats,
		})
		if err != nil {
			// The corpus is already on disk; a failed notification does not
			// fail the run.
			util.Log(ctx).WithError(err).Error("runtime: completion hook")
		}
	}
	return res, nil
}

func (r *Runner) generate(ctx context.Context, gen *generator.Generator, job Job, runID string, run *store.CorpusRun) (*Result, error) {
	dialogs, err := gen.Corpus(ctx, job.Size, job.Seed)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: runID, Dialogs: dialogs, Stats: corpus.Compute(dialogs)}
	serialized := corpus.New(job.Domain.Spec(), dialogs)

	for _, format := range job.Formats {
		name := corpus.FileName(job.Domain.Name(), job.Profile.Name, job.Size, extension(format))
		path, err := corpus.WriteFile(job.OutputDir, name, writer(format, serialized, dialogs))
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}

	if run != nil {
		records, err := store.Records(runID, dialogs, serialized.Dialogs)
		if err != nil {
			return nil, err
		}
		run.Output = job.OutputDir
		if err := r.runs.CompleteRun(ctx, run, res.Stats, records); err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
	}
	return res, nil
}

func (r *Runner) fail(ctx context.Context, runID string, run *store.CorpusRun, cause error) {
	util.Log(ctx).WithError(cause).Error("runtime: corpus run failed")
	r.emit(ctx, events.CorpusFailed, runID, &events.CorpusFailedData{Error: cause.Error()})
	if run != nil {
		if err := r.runs.FailRun(ctx, run, cause); err != nil {
			util.Log(ctx).WithError(err).Error("runtime: record failed run")
		}
	}
}

func (r *Runner) emit(ctx context.Context, eventType events.EventType, runID string, data any) {
	if err := r.pub.Emit(ctx, eventType, runID, data); err != nil {
		util.Log(ctx).WithError(err).Error("runtime: publish event")
	}
}

func extension(format string) string {
	switch format {
	case config.FormatJSON:
		return "json"
	case config.FormatText:
		return "txt"
	case config.FormatTSV:
		return "tsv"
	}
	return ""
}

func writer(format string, c *corpus.Corpus, dialogs []*dialog.Dialog) func(io.Writer) error {
	switch format {
	case config.FormatText:
		return func(w io.Writer) error { return corpus.WriteText(w, dialogs) }
	case config.FormatTSV:
		return func(w io.Writer) error { return corpus.WriteTSV(w, dialogs) }
	}
	return c.WriteJSON
}
