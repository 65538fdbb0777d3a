package registry

import (
	"os"
	"path/filepath"

	"github.com/voicetyped/simdial/pkg/complexity"
)

// Profiles is the global complexity preset registry. The config map holds
// dotted rate overrides applied on top of the preset.
var Profiles = New[*complexity.Profile]("complexity preset")

// ResolveProfile returns the named preset or, when ref names an existing
// YAML file, the profile loaded from it. Overrides apply in both cases.
func ResolveProfile(ref string, overrides map[string]string) (*complexity.Profile, error) {
	if Profiles.Has(ref) {
		return Profiles.Create(ref, overrides)
	}
	if ext := filepath.Ext(ref); ext == ".yaml" || ext == ".yml" {
		if _, err := os.Stat(ref); err == nil {
			p, err := complexity.LoadFile(ref)
			if err != nil {
				return nil, err
			}
			if err := p.Override(overrides); err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return Profiles.Create(ref, overrides)
}
