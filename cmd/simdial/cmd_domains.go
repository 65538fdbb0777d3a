package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicetyped/simdial/pkg/domain"
)

var domainsFlags struct {
	dir string
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List built-in and loaded domains",
	RunE:  runDomains,
}

func init() {
	domainsCmd.Flags().StringVar(&domainsFlags.dir, "domain-dir", "", "Directory of domain YAML files")
}

func runDomains(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, name := range domain.BuiltinNames() {
		d, err := domain.Resolve(nil, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-12s builtin  usr=%d sys=%d db=%d\n", name, len(d.UsrSlots()), len(d.SysSlots()), d.DBSize())
	}
	if domainsFlags.dir == "" {
		return nil
	}

	loader := domain.NewLoader(domainsFlags.dir)
	if _, err := loader.LoadAll(); err != nil {
		return err
	}
	for _, name := range loader.Names() {
		d, _ := loader.Get(name)
		fmt.Fprintf(out, "%-12s file     usr=%d sys=%d db=%d\n", name, len(d.UsrSlots()), len(d.SysSlots()), d.DBSize())
	}
	return nil
}
