package main

import (
	"github.com/spf13/cobra"

	simconfig "github.com/voicetyped/simdial/config"
)

// Flags shared by generate and watch. Values override the environment only
// when set on the command line.
var runFlags struct {
	domainDir  string
	domain     string
	complexity string
	outputDir  string
	size       int
	seed       uint64
	workers    int
	format     string
	persist    bool
	notify     string
	overrides  map[string]string
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&runFlags.domainDir, "domain-dir", "", "Directory of domain YAML files (env DOMAIN_DIR)")
	f.StringVar(&runFlags.domain, "domain", "", "Domain name (env DEFAULT_DOMAIN)")
	f.StringVar(&runFlags.complexity, "complexity", "", "Complexity preset or profile YAML file (env DEFAULT_COMPLEXITY)")
	f.StringVarP(&runFlags.outputDir, "out", "o", "", "Output directory (env OUTPUT_DIR)")
	f.IntVarP(&runFlags.size, "size", "n", 0, "Number of dialogs (env CORPUS_SIZE)")
	f.Uint64Var(&runFlags.seed, "seed", 0, "Corpus seed (env CORPUS_SEED)")
	f.IntVar(&runFlags.workers, "workers", 0, "Dialogs generated at once without a worker pool (env GENERATOR_WORKERS)")
	f.StringVar(&runFlags.format, "format", "", "Comma separated output formats: json, text, tsv (env OUTPUT_FORMAT)")
	f.BoolVar(&runFlags.persist, "persist", false, "Store the run in the datastore (env PERSIST_CORPUS)")
	f.StringVar(&runFlags.notify, "notify", "", "Completion hook URL (env NOTIFY_HOOK_URL)")
	f.StringToStringVar(&runFlags.overrides, "set", nil, "Profile rate overrides, e.g. --set environment.noise=0.2")
}

func applyFlags(cmd *cobra.Command, cfg *simconfig.GeneratorConfig) {
	f := cmd.Flags()
	if f.Changed("domain-dir") {
		cfg.DomainDir = runFlags.domainDir
	}
	if f.Changed("domain") {
		cfg.DefaultDomain = runFlags.domain
	}
	if f.Changed("complexity") {
		cfg.DefaultComplexity = runFlags.complexity
	}
	if f.Changed("out") {
		cfg.OutputDir = runFlags.outputDir
	}
	if f.Changed("size") {
		cfg.CorpusSize = runFlags.size
	}
	if f.Changed("seed") {
		cfg.CorpusSeed = runFlags.seed
	}
	if f.Changed("workers") {
		cfg.GeneratorWorkers = runFlags.workers
	}
	if f.Changed("format") {
		cfg.OutputFormat = runFlags.format
	}
	if f.Changed("persist") {
		cfg.PersistCorpus = runFlags.persist
	}
	if f.Changed("notify") {
		cfg.NotifyHookURL = runFlags.notify
	}
}
