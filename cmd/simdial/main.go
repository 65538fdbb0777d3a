// simdial generates synthetic task-oriented dialog corpora.
//
// Usage:
//
//	simdial generate [--domain=<name>] [--complexity=<preset|file.yaml>] [--size=<n>] [--seed=<n>]
//	simdial watch    --domain-dir=<dir> [--domain=<name>]
//	simdial presets  [<name>]
//	simdial domains  [--domain-dir=<dir>]
//	simdial runs     [<run-id>] [--limit=<n>] [--dialogs=<n>] [--offset=<n>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	// Register complexity presets via init().
	_ "github.com/voicetyped/simdial/internal/presets"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "simdial",
	Short: "Synthetic task-oriented dialog generator",
	Long: "simdial simulates a system agent and a user agent talking over a noisy\n" +
		"channel and writes the resulting dialogs as an annotated corpus.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
