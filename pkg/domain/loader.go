package domain

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads and optionally hot-reloads domain definitions from YAML files.
type Loader struct {
	dir string

	mu      sync.RWMutex
	domains map[string]*Domain
}

// NewLoader creates a new domain loader for the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:     dir,
		domains: make(map[string]*Domain),
	}
}

// LoadAll loads all .yaml and .yml files from the configured directory.
func (l *Loader) LoadAll() (map[string]*Domain, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read domain dir %q: %w", l.dir, err)
	}

	result := make(map[string]*Domain)
	sources := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		d, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := sources[d.Name()]; ok {
			return nil, fmt.Errorf("%w: %q declared by %q and %q", ErrDuplicateDomain, d.Name(), prev, path)
		}
		sources[d.Name()] = path
		result[d.Name()] = d
	}

	l.mu.Lock()
	l.domains = result
	l.mu.Unlock()

	return result, nil
}

// Get returns a loaded domain by name.
func (l *Loader) Get(name string) (*Domain, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.domains[name]
	return d, ok
}

// Names returns the loaded domain names, sorted.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.domains))
	for k := range l.domains {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads, parses and validates a single domain file.
func LoadFile(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain %q: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates a YAML domain declaration.
func Parse(data []byte) (*Domain, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return New(spec)
}

// WatchAndReload watches the domain directory and reloads on changes,
// calling onReload with the fresh set after each successful reload.
// This blocks until the done channel is closed.
func (l *Loader) WatchAndReload(done <-chan struct{}, onReload func(map[string]*Domain)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", l.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) || !isYAML(event.Name) {
				continue
			}
			domains, err := l.LoadAll()
			if err != nil {
				slog.Warn("domain reload failed", slog.String("path", event.Name), slog.String("error", err.Error()))
				continue
			}
			if onReload != nil {
				onReload(domains)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
