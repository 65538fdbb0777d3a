package domain

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the domains shipped with the binary, keyed by name.
func Builtin() (map[string]*Domain, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin domains: %w", err)
	}
	out := make(map[string]*Domain, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read builtin %q: %w", e.Name(), err)
		}
		d, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %q: %w", e.Name(), err)
		}
		out[d.Name()] = d
	}
	return out, nil
}

// BuiltinNames lists the embedded domain names, sorted.
func BuiltinNames() []string {
	all, err := Builtin()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve finds a domain by name, preferring a loaded file over a built-in
// of the same name. A nil loader only consults the built-ins.
func Resolve(l *Loader, name string) (*Domain, error) {
	if l != nil {
		if d, ok := l.Get(name); ok {
			return d, nil
		}
	}
	all, err := Builtin()
	if err != nil {
		return nil, err
	}
	d, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
	return d, nil
}
