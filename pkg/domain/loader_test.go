package domain

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pizzaYAML = `
name: pizza
greet: Pizza bot here.
db_size: 20
usr_slots:
  - name: size
    vocabulary: [small, large]
    templates:
      inform: ["{{.Value}} please."]
      request: ["What size?"]
sys_slots:
  - name: eta
    vocabulary: [soon, late]
    templates:
      inform: ["It arrives {{.Value}}."]
      request: ["When will it arrive?"]
      yn_question:
        soon: ["Will it be soon?"]
`

func TestLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pizza.yaml"), []byte(pizzaYAML), 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("write txt: %v", err)
	}

	loader := NewLoader(dir)
	domains, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(domains) != 1 {
		t.Fatalf("loaded %d domains, want 1", len(domains))
	}

	d, ok := loader.Get("pizza")
	if !ok {
		t.Fatal("domain 'pizza' not found")
	}
	if d.DBSize() != 20 {
		t.Errorf("db_size = %d, want 20", d.DBSize())
	}
	slot, err := d.SysSlot("eta")
	if err != nil {
		t.Fatalf("SysSlot: %v", err)
	}
	if slot.Size() != 2 || slot.Kind != SystemSlot {
		t.Errorf("eta slot = %+v", slot)
	}
	if names := loader.Names(); len(names) != 1 || names[0] != "pizza" {
		t.Errorf("Names() = %v, want [pizza]", names)
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	if _, err := NewLoader(dir).LoadAll(); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoaderDuplicateName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(pizzaYAML), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	loader := NewLoader(dir)
	_, err := loader.LoadAll()
	if !errors.Is(err, ErrDuplicateDomain) {
		t.Fatalf("LoadAll error = %v, want ErrDuplicateDomain", err)
	}
	for _, name := range []string{"a.yaml", "b.yml"} {
		if !strings.Contains(err.Error(), filepath.Join(dir, name)) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
	if names := loader.Names(); len(names) != 0 {
		t.Errorf("failed load replaced domains: %v", names)
	}
}

func TestLoaderEmptyDir(t *testing.T) {
	domains, err := NewLoader(t.TempDir()).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(domains) != 0 {
		t.Errorf("loaded %d domains from empty dir, want 0", len(domains))
	}
}

func TestLoaderMissingDir(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope")).LoadAll(); err == nil {
		t.Error("expected error for missing directory")
	}
}
