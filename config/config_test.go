package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"json", []string{"json"}},
		{"json, TEXT,tsv", []string{"json", "text", "tsv"}},
		{"tsv,tsv,,json", []string{"tsv", "json"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := GeneratorConfig{OutputFormat: tt.in}
			if diff := cmp.Diff(tt.want, cfg.Formats()); diff != "" {
				t.Errorf("Formats(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
