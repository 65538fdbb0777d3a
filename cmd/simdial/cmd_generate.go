package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicetyped/simdial/internal/registry"
	"github.com/voicetyped/simdial/internal/runtime"
	"github.com/voicetyped/simdial/pkg/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dialog corpus",
	RunE:  runGenerate,
}

func init() {
	addRunFlags(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Context(), cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ctx, a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.stop()

	j, err := a.job()
	if err != nil {
		return err
	}
	res, err := a.runner.Run(ctx, j)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s\n", res.RunID, res.Stats)
	for _, f := range res.Files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	return nil
}

// job resolves the configured domain and profile once, before any dialog is
// generated.
func (a *app) job() (runtime.Job, error) {
	d, err := domain.Resolve(a.loader, a.cfg.DefaultDomain)
	if err != nil {
		return runtime.Job{}, err
	}
	p, err := registry.ResolveProfile(a.cfg.DefaultComplexity, runFlags.overrides)
	if err != nil {
		return runtime.Job{}, err
	}
	return runtime.Job{
		Domain:    d,
		Profile:   p,
		Size:      a.cfg.CorpusSize,
		Seed:      a.cfg.CorpusSeed,
		OutputDir: a.cfg.OutputDir,
		Formats:   a.cfg.Formats(),
		Workers:   a.cfg.GeneratorWorkers,
		Hook:      a.hook(),
	}, nil
}
