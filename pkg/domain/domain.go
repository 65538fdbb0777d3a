// Package domain describes the task a corpus is generated for: the slots a
// user can fill, the slots a system can report and the size of the abstract
// knowledge base.
package domain

import (
	"errors"
	"fmt"

	"github.com/voicetyped/simdial/pkg/dialog"
)

// ErrUnknownSlot is returned when a slot name is not declared by the domain.
var ErrUnknownSlot = errors.New("unknown slot")

// ErrUnknownDomain is returned when no loaded or built-in domain has the name.
var ErrUnknownDomain = errors.New("unknown domain")

// ErrDuplicateDomain is returned when two files in a directory declare the
// same domain name.
var ErrDuplicateDomain = errors.New("duplicate domain")

// DontCareLabel is the literal used for dialog.DontCare in lexicalized output.
const DontCareLabel = "dont_care"

// Templates are the surface forms a slot can be rendered with. Template
// strings use text/template syntax with the slot value bound to .Value.
type Templates struct {
	Inform     []string            `yaml:"inform"      json:"inform,omitempty"`
	Request    []string            `yaml:"request"     json:"request,omitempty"`
	YNQuestion map[string][]string `yaml:"yn_question" json:"yn_question,omitempty"`
	DontCare   []string            `yaml:"dont_care"   json:"dont_care,omitempty"`
}

// SlotSpec is the YAML-mappable declaration of a slot.
type SlotSpec struct {
	Name        string    `yaml:"name"        json:"name"`
	Description string    `yaml:"description" json:"description"`
	Vocabulary  []string  `yaml:"vocabulary"  json:"vocabulary"`
	Templates   Templates `yaml:"templates"   json:"templates"`
}

// Spec is the YAML-mappable domain declaration. It is also the "meta"
// section of a serialized corpus.
type Spec struct {
	Name     string     `yaml:"name"      json:"name"`
	Greet    string     `yaml:"greet"     json:"greet"`
	UsrSlots []SlotSpec `yaml:"usr_slots" json:"usr_slots"`
	SysSlots []SlotSpec `yaml:"sys_slots" json:"sys_slots"`
	DBSize   int        `yaml:"db_size"   json:"db_size"`
	// Default holds the domain-level forms: request is the user's opening
	// "I need a ..." and inform announces the entity a query found, with
	// its number bound to .Value.
	Default *Templates `yaml:"default,omitempty" json:"default,omitempty"`
}

// SlotKind tells user-fillable slots from system-reportable ones.
type SlotKind string

const (
	UserSlot   SlotKind = "usr"
	SystemSlot SlotKind = "sys"
)

// Slot is an immutable, validated slot.
type Slot struct {
	SlotSpec
	Kind  SlotKind
	Index int
}

// Size returns the vocabulary size.
func (s *Slot) Size() int {
	return len(s.Vocabulary)
}

// Lexicalize maps a value index to its literal string.
func (s *Slot) Lexicalize(v dialog.Value) (string, error) {
	switch {
	case v == dialog.DontCare:
		return DontCareLabel, nil
	case v >= 0 && int(v) < len(s.Vocabulary):
		return s.Vocabulary[v], nil
	}
	return "", fmt.Errorf("slot %q: value %d out of range", s.Name, v)
}

// Domain is a validated, read-only domain shared by all dialogs of a run.
type Domain struct {
	spec  Spec
	usr   []*Slot
	sys   []*Slot
	index map[string]*Slot
}

// New validates a spec and builds a domain from it.
func New(spec Spec) (*Domain, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	d := &Domain{spec: spec, index: make(map[string]*Slot)}
	for i, s := range spec.UsrSlots {
		slot := &Slot{SlotSpec: s, Kind: UserSlot, Index: i}
		d.usr = append(d.usr, slot)
		d.index[s.Name] = slot
	}
	for i, s := range spec.SysSlots {
		slot := &Slot{SlotSpec: s, Kind: SystemSlot, Index: i}
		d.sys = append(d.sys, slot)
		d.index[s.Name] = slot
	}
	return d, nil
}

// Validate checks a spec for consistency.
func Validate(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("domain: name is required")
	}
	if spec.DBSize <= 0 {
		return fmt.Errorf("domain %q: db_size must be positive, got %d", spec.Name, spec.DBSize)
	}
	if len(spec.UsrSlots) == 0 {
		return fmt.Errorf("domain %q: at least one user slot is required", spec.Name)
	}
	if len(spec.SysSlots) == 0 {
		return fmt.Errorf("domain %q: at least one system slot is required", spec.Name)
	}

	seen := make(map[string]bool)
	check := func(kind SlotKind, s SlotSpec) error {
		if s.Name == "" {
			return fmt.Errorf("domain %q: %s slot without name", spec.Name, kind)
		}
		if seen[s.Name] {
			return fmt.Errorf("domain %q: duplicate slot %q", spec.Name, s.Name)
		}
		seen[s.Name] = true
		if len(s.Vocabulary) == 0 {
			return fmt.Errorf("domain %q slot %q: vocabulary is empty", spec.Name, s.Name)
		}
		words := make(map[string]bool, len(s.Vocabulary))
		for _, w := range s.Vocabulary {
			if w == DontCareLabel {
				return fmt.Errorf("domain %q slot %q: %q is reserved", spec.Name, s.Name, DontCareLabel)
			}
			if words[w] {
				return fmt.Errorf("domain %q slot %q: duplicate value %q", spec.Name, s.Name, w)
			}
			words[w] = true
		}
		if len(s.Templates.Inform) == 0 {
			return fmt.Errorf("domain %q slot %q: inform templates are required", spec.Name, s.Name)
		}
		if len(s.Templates.Request) == 0 {
			return fmt.Errorf("domain %q slot %q: request templates are required", spec.Name, s.Name)
		}
		for v := range s.Templates.YNQuestion {
			if !words[v] {
				return fmt.Errorf("domain %q slot %q: yn_question for unknown value %q", spec.Name, s.Name, v)
			}
		}
		return nil
	}

	if t := spec.Default; t != nil && (len(t.Inform) == 0 || len(t.Request) == 0) {
		return fmt.Errorf("domain %q: default needs inform and request templates", spec.Name)
	}

	for _, s := range spec.UsrSlots {
		if err := check(UserSlot, s); err != nil {
			return err
		}
	}
	for _, s := range spec.SysSlots {
		if err := check(SystemSlot, s); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the domain name.
func (d *Domain) Name() string { return d.spec.Name }

// Greet returns the greeting text.
func (d *Domain) Greet() string { return d.spec.Greet }

// DBSize returns the abstract knowledge base cardinality.
func (d *Domain) DBSize() int { return d.spec.DBSize }

// HasDefault reports whether the domain declares default templates.
func (d *Domain) HasDefault() bool { return d.spec.Default != nil }

// Spec returns the declaration the domain was built from.
func (d *Domain) Spec() Spec { return d.spec }

// UsrSlots returns the user slots in declaration order.
func (d *Domain) UsrSlots() []*Slot { return d.usr }

// SysSlots returns the system slots in declaration order.
func (d *Domain) SysSlots() []*Slot { return d.sys }

// UsrSlot looks up a user slot by name.
func (d *Domain) UsrSlot(name string) (*Slot, error) {
	s, ok := d.index[name]
	if !ok || s.Kind != UserSlot {
		return nil, fmt.Errorf("%w: user slot %q in domain %q", ErrUnknownSlot, name, d.spec.Name)
	}
	return s, nil
}

// SysSlot looks up a system slot by name.
func (d *Domain) SysSlot(name string) (*Slot, error) {
	s, ok := d.index[name]
	if !ok || s.Kind != SystemSlot {
		return nil, fmt.Errorf("%w: system slot %q in domain %q", ErrUnknownSlot, name, d.spec.Name)
	}
	return s, nil
}
