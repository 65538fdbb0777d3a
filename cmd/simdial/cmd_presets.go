package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/voicetyped/simdial/internal/registry"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List complexity presets or print one as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresets,
}

func runPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, name := range registry.Profiles.List() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	p, err := registry.Profiles.Create(args[0], nil)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	return enc.Close()
}
