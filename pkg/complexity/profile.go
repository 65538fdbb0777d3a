// Package complexity defines the tunable knobs that control how noisy,
// verbose and social generated dialogs are.
package complexity

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is wrapped by every validation error.
var ErrInvalidProfile = errors.New("invalid complexity profile")

// ConfirmMode selects how the system agent confirms uncertain beliefs.
type ConfirmMode string

const (
	ConfirmNone     ConfirmMode = "none"
	ConfirmImplicit ConfirmMode = "implicit"
	ConfirmExplicit ConfirmMode = "explicit"
	// ConfirmMixed picks implicit or explicit using ExplicitRate, either once
	// per dialog or once per confirmation depending on Selection.
	ConfirmMixed ConfirmMode = "mixed"
)

// Selection controls when a mixed confirmation mode is decided.
type Selection string

const (
	SelectPerDialog Selection = "dialog"
	SelectPerTurn   Selection = "turn"
)

// Profile is a named complexity configuration. Profiles are read-only once
// validated and shared by all dialogs of a run.
type Profile struct {
	Name        string      `yaml:"name"        json:"name"`
	Environment Environment `yaml:"environment" json:"environment"`
	Proposition Proposition `yaml:"proposition" json:"proposition"`
	Interaction Interaction `yaml:"interaction" json:"interaction"`
	Social      Social      `yaml:"social"      json:"social"`
}

// Environment covers recognition noise.
type Environment struct {
	// Noise is the probability that an on-task user act is corrupted.
	Noise float64 `yaml:"noise"      json:"noise"`
	// WordNoise is the per-word probability of a surface perturbation.
	WordNoise float64 `yaml:"word_noise" json:"word_noise"`
}

// Proposition covers what the user asks for.
type Proposition struct {
	YNQuestion   float64 `yaml:"yn_question"   json:"yn_question"`
	DontCare     float64 `yaml:"dont_care"     json:"dont_care"`
	RejectInform float64 `yaml:"reject_inform" json:"reject_inform"`
	MultiSlot    bool    `yaml:"multi_slot"    json:"multi_slot"`
	GroupSize    int     `yaml:"group_size"    json:"group_size"`
	NewSearch    float64 `yaml:"new_search"    json:"new_search"`
	MoreRequest  float64 `yaml:"more_request"  json:"more_request"`
	MaxGoals     int     `yaml:"max_goals"     json:"max_goals"`
}

// Confirmation configures the system agent's confirmation policy.
type Confirmation struct {
	Mode         ConfirmMode `yaml:"mode"          json:"mode"`
	Selection    Selection   `yaml:"selection"     json:"selection"`
	ExplicitRate float64     `yaml:"explicit_rate" json:"explicit_rate"`
	// Accept is the confidence at or above which a belief needs no confirmation.
	Accept float64 `yaml:"accept" json:"accept"`
	// High is the confidence at or above which implicit confirmation is used.
	High float64 `yaml:"high" json:"high"`
	// Low is the confidence below which the turn is not interpreted.
	Low float64 `yaml:"low" json:"low"`
}

// Interaction covers turn-taking behaviour.
type Interaction struct {
	SelfCorrect     float64      `yaml:"self_correct"      json:"self_correct"`
	Hesitation      float64      `yaml:"hesitation"        json:"hesitation"`
	Confirmation    Confirmation `yaml:"confirmation"      json:"confirmation"`
	MaxClarify      int          `yaml:"max_clarify"       json:"max_clarify"`
	MaxSlotAttempts int          `yaml:"max_slot_attempts" json:"max_slot_attempts"`
	MaxTurns        int          `yaml:"max_turns"         json:"max_turns"`
}

// Social covers off-task behaviour.
type Social struct {
	ChitChat float64 `yaml:"chit_chat" json:"chit_chat"`
}

// Default returns a noise-free profile with implicit confirmation.
func Default() Profile {
	return Profile{
		Name: "clean",
		Proposition: Proposition{
			GroupSize: 2,
			MaxGoals:  1,
		},
		Interaction: Interaction{
			Confirmation: Confirmation{
				Mode:         ConfirmImplicit,
				Selection:    SelectPerDialog,
				ExplicitRate: 0.5,
				Accept:       1.0,
				High:         0.7,
				Low:          0.3,
			},
			MaxClarify:      3,
			MaxSlotAttempts: 4,
			MaxTurns:        80,
		},
	}
}

type rate struct {
	name string
	v    *float64
}

func (p *Profile) rates() []rate {
	return []rate{
		{"environment.noise", &p.Environment.Noise},
		{"environment.word_noise", &p.Environment.WordNoise},
		{"proposition.yn_question", &p.Proposition.YNQuestion},
		{"proposition.dont_care", &p.Proposition.DontCare},
		{"proposition.reject_inform", &p.Proposition.RejectInform},
		{"proposition.new_search", &p.Proposition.NewSearch},
		{"proposition.more_request", &p.Proposition.MoreRequest},
		{"interaction.self_correct", &p.Interaction.SelfCorrect},
		{"interaction.hesitation", &p.Interaction.Hesitation},
		{"interaction.confirmation.explicit_rate", &p.Interaction.Confirmation.ExplicitRate},
		{"social.chit_chat", &p.Social.ChitChat},
	}
}

// Override sets rate fields addressed by their dotted YAML path, for example
// "environment.noise" = "0.3", and revalidates the profile.
func (p *Profile) Override(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	rates := p.rates()
	for key, raw := range values {
		idx := slices.IndexFunc(rates, func(r rate) bool { return r.name == key })
		if idx < 0 {
			return fmt.Errorf("%w %q: unknown override %q", ErrInvalidProfile, p.Name, key)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w %q: override %s: %v", ErrInvalidProfile, p.Name, key, err)
		}
		*rates[idx].v = f
	}
	return p.Validate()
}

// Validate checks ranges and enumerations.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	for _, r := range p.rates() {
		if *r.v < 0 || *r.v > 1 {
			return fmt.Errorf("%w %q: %s = %v, want [0,1]", ErrInvalidProfile, p.Name, r.name, *r.v)
		}
	}

	c := p.Interaction.Confirmation
	switch c.Mode {
	case ConfirmNone, ConfirmImplicit, ConfirmExplicit, ConfirmMixed:
	default:
		return fmt.Errorf("%w %q: unknown confirmation mode %q", ErrInvalidProfile, p.Name, c.Mode)
	}
	switch c.Selection {
	case SelectPerDialog, SelectPerTurn:
	default:
		return fmt.Errorf("%w %q: unknown confirmation selection %q", ErrInvalidProfile, p.Name, c.Selection)
	}
	if !(0 <= c.Low && c.Low <= c.High && c.High <= c.Accept && c.Accept <= 1) {
		return fmt.Errorf("%w %q: thresholds must satisfy 0 <= low <= high <= accept <= 1 (got %v, %v, %v)",
			ErrInvalidProfile, p.Name, c.Low, c.High, c.Accept)
	}

	if p.Proposition.MaxGoals < 1 {
		return fmt.Errorf("%w %q: proposition.max_goals must be >= 1", ErrInvalidProfile, p.Name)
	}
	if p.Proposition.MultiSlot && p.Proposition.GroupSize < 2 {
		return fmt.Errorf("%w %q: proposition.group_size must be >= 2 when multi_slot is set", ErrInvalidProfile, p.Name)
	}
	if p.Interaction.MaxClarify < 1 {
		return fmt.Errorf("%w %q: interaction.max_clarify must be >= 1", ErrInvalidProfile, p.Name)
	}
	if p.Interaction.MaxSlotAttempts < 1 {
		return fmt.Errorf("%w %q: interaction.max_slot_attempts must be >= 1", ErrInvalidProfile, p.Name)
	}
	if p.Interaction.MaxTurns < 4 {
		return fmt.Errorf("%w %q: interaction.max_turns must be >= 4", ErrInvalidProfile, p.Name)
	}
	return nil
}

// Parse decodes a YAML profile on top of Default and validates it.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	p.Name = ""
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads and validates a YAML profile.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %q: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	return p, nil
}
