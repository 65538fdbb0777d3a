package config

import (
	"strings"

	"github.com/pitabwire/frame/config"
)

// Output formats accepted by OUTPUT_FORMAT.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatTSV  = "tsv"
)

// GeneratorConfig holds configuration for the corpus generator.
type GeneratorConfig struct {
	config.ConfigurationDefault

	DomainDir         string `envDefault:""            env:"DOMAIN_DIR"`
	DefaultDomain     string `envDefault:"restaurant"  env:"DEFAULT_DOMAIN"`
	DefaultComplexity string `envDefault:"mix"         env:"DEFAULT_COMPLEXITY"`
	OutputDir         string `envDefault:"./corpus"    env:"OUTPUT_DIR"`
	CorpusSize        int    `envDefault:"100"         env:"CORPUS_SIZE"`
	CorpusSeed        uint64 `envDefault:"0"           env:"CORPUS_SEED"`
	GeneratorWorkers  int    `envDefault:"4"           env:"GENERATOR_WORKERS"`

	// OutputFormat is a comma separated list of json, text and tsv.
	OutputFormat  string `envDefault:"json"        env:"OUTPUT_FORMAT"`
	PersistCorpus bool   `envDefault:"false"       env:"PERSIST_CORPUS"`

	// Completion hook
	NotifyHookURL    string `envDefault:""            env:"NOTIFY_HOOK_URL"`
	NotifyHookAuth   string `envDefault:"none"        env:"NOTIFY_HOOK_AUTH"`
	NotifyHookSecret string `envDefault:""            env:"NOTIFY_HOOK_SECRET"`
}

// Formats returns the requested output formats, lower-cased and without
// duplicates.
func (c *GeneratorConfig) Formats() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(c.OutputFormat, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
