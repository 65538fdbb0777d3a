package main

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pitabwire/util"
	"github.com/spf13/cobra"

	"github.com/voicetyped/simdial/pkg/domain"
	"github.com/voicetyped/simdial/pkg/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the corpus whenever the domain files change",
	RunE:  runWatch,
}

func init() {
	addRunFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Context(), cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.DomainDir == "" {
		return errors.New("watch needs a domain directory (--domain-dir or DOMAIN_DIR)")
	}
	ctx, a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.stop()

	out := cmd.OutOrStdout()
	generate := func() {
		j, err := a.job()
		if err != nil {
			util.Log(ctx).WithError(err).Error("watch: resolve job")
			return
		}
		res, err := a.runner.Run(ctx, j)
		if err != nil {
			util.Log(ctx).WithError(err).Error("watch: generate corpus")
			return
		}
		fmt.Fprintf(out, "run %s: %s\n", res.RunID, res.Stats)
	}

	generate()
	slog.InfoContext(ctx, "watching domain directory", slog.String("dir", cfg.DomainDir))

	return a.loader.WatchAndReload(ctx.Done(), func(domains map[string]*domain.Domain) {
		names := make([]string, 0, len(domains))
		for n := range domains {
			names = append(names, n)
		}
		slices.Sort(names)
		if err := a.pub.Emit(ctx, events.DomainReloaded, "", &events.DomainReloadedData{Domains: names}); err != nil {
			util.Log(ctx).WithError(err).Error("watch: publish reload event")
		}
		if _, ok := domains[a.cfg.DefaultDomain]; ok {
			generate()
		}
	})
}
