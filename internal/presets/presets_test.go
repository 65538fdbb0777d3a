package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voicetyped/simdial/internal/registry"
	"github.com/voicetyped/simdial/pkg/complexity"
)

func TestPresetsRegistered(t *testing.T) {
	want := []string{"clean", "env", "interact", "mix", "prop", "social"}
	got := registry.Profiles.List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			p, err := registry.Profiles.Create(name, nil)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if p.Name != name {
				t.Errorf("Name = %q, want %q", p.Name, name)
			}
			if sel := p.Interaction.Confirmation.Selection; sel != complexity.SelectPerDialog {
				t.Errorf("Selection = %q, want %q", sel, complexity.SelectPerDialog)
			}
		})
	}
}

func TestPresetsAreIndependent(t *testing.T) {
	a, err := registry.Profiles.Create("env", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	a.Environment.Noise = 0.9

	b, err := registry.Profiles.Create("env", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Environment.Noise != 0.3 {
		t.Errorf("second env preset noise = %v, want 0.3", b.Environment.Noise)
	}
}

func TestResolveProfile(t *testing.T) {
	p, err := registry.ResolveProfile("clean", map[string]string{"environment.noise": "0.5"})
	if err != nil {
		t.Fatalf("ResolveProfile(clean): %v", err)
	}
	if p.Environment.Noise != 0.5 {
		t.Errorf("noise = %v, want 0.5", p.Environment.Noise)
	}

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("name: custom\nsocial:\n  chit_chat: 0.4\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err = registry.ResolveProfile(path, nil)
	if err != nil {
		t.Fatalf("ResolveProfile(file): %v", err)
	}
	if p.Name != "custom" || p.Social.ChitChat != 0.4 {
		t.Errorf("file profile = %+v", p)
	}

	if _, err := registry.ResolveProfile("nope", nil); err == nil {
		t.Error("expected error for unknown preset")
	}
}
