package main

import (
	"context"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"
	"github.com/spf13/cobra"

	simconfig "github.com/voicetyped/simdial/config"
	"github.com/voicetyped/simdial/internal/runtime"
	"github.com/voicetyped/simdial/pkg/domain"
	"github.com/voicetyped/simdial/pkg/events"
	"github.com/voicetyped/simdial/pkg/hooks"
	"github.com/voicetyped/simdial/pkg/store"
)

// app is the wired service shared by the generate and watch commands.
type app struct {
	cfg    simconfig.GeneratorConfig
	pub    *events.Publisher
	runner *runtime.Runner
	loader *domain.Loader
	stop   func()
}

// loadConfig reads the environment and applies the flags set on cmd.
func loadConfig(ctx context.Context, cmd *cobra.Command) (simconfig.GeneratorConfig, error) {
	cfg, err := config.LoadWithOIDC[simconfig.GeneratorConfig](ctx)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	return cfg, nil
}

func newApp(ctx context.Context, cfg simconfig.GeneratorConfig) (context.Context, *app, error) {
	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	opts := []frame.Option{
		frame.WithConfig(&cfg),
		frame.WithName("simdial"),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	}
	if cfg.PersistCorpus {
		opts = append(opts, frame.WithDatastore())
	}
	ctx, srv := frame.NewService(opts...)
	a := &app{cfg: cfg, stop: func() { srv.Stop(ctx) }}

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		a.stop()
		return ctx, nil, err
	}

	a.pub = events.NewPublisher(srv.QueueManager(), "simdial", eventRef)

	var runs runtime.RunStore
	if cfg.PersistCorpus {
		repo := store.NewRepository(srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"))
		if err := repo.Migrate(ctx); err != nil {
			a.stop()
			return ctx, nil, err
		}
		runs = repo
	}

	var hookExec *hooks.Executor
	if cfg.NotifyHookURL != "" {
		hookExec = hooks.NewExecutor(a.pub)
	}
	a.runner = runtime.NewRunner(a.pub, pool, runs, hookExec)

	if cfg.DomainDir != "" {
		a.loader = domain.NewLoader(cfg.DomainDir)
		if _, err := a.loader.LoadAll(); err != nil {
			a.stop()
			return ctx, nil, err
		}
	}
	return ctx, a, nil
}

func (a *app) hook() hooks.HookConfig {
	return hooks.HookConfig{
		URL:        a.cfg.NotifyHookURL,
		AuthType:   a.cfg.NotifyHookAuth,
		AuthSecret: a.cfg.NotifyHookSecret,
	}
}
