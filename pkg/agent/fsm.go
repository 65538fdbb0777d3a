// Package agent implements the two simulated dialog participants: the
// system agent that fills user slots and reports knowledge base results, and
// the user agent that pursues a private goal.
package agent

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIllegalTransition is returned when the system agent attempts a phase
// change the transition table does not allow.
var ErrIllegalTransition = errors.New("illegal phase transition")

// Phase is a system agent phase.
type Phase string

const (
	PhaseGreeting   Phase = "greeting"
	PhaseCollecting Phase = "collecting"
	PhaseQuerying   Phase = "querying"
	PhaseInforming  Phase = "informing"
	PhaseClosing    Phase = "closing"
)

// transitions lists the legal successors of each phase. Closing is terminal.
var transitions = map[Phase][]Phase{
	PhaseGreeting:   {PhaseCollecting, PhaseClosing},
	PhaseCollecting: {PhaseQuerying, PhaseClosing},
	PhaseQuerying:   {PhaseInforming, PhaseClosing},
	PhaseInforming:  {PhaseCollecting, PhaseClosing},
	PhaseClosing:    nil,
}

// PhaseMachine tracks the current phase and the history of phases entered.
type PhaseMachine struct {
	current Phase
	history []Phase
}

// NewPhaseMachine creates a machine in the greeting phase.
func NewPhaseMachine() *PhaseMachine {
	return &PhaseMachine{current: PhaseGreeting, history: []Phase{PhaseGreeting}}
}

// Current returns the current phase.
func (m *PhaseMachine) Current() Phase {
	return m.current
}

// History returns every phase entered so far, in order.
func (m *PhaseMachine) History() []Phase {
	return slices.Clone(m.history)
}

// Terminal reports whether the machine reached the closing phase.
func (m *PhaseMachine) Terminal() bool {
	return m.current == PhaseClosing
}

// Transition moves to the target phase if the table allows it.
func (m *PhaseMachine) Transition(to Phase) error {
	if !slices.Contains(transitions[m.current], to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

// ValidateTransitions checks that every transition target is a declared phase
// and that closing is reachable from every phase.
func ValidateTransitions() error {
	for from, targets := range transitions {
		for _, to := range targets {
			if _, ok := transitions[to]; !ok {
				return fmt.Errorf("phase %q: target %q not declared", from, to)
			}
		}
		if from != PhaseClosing && !slices.Contains(targets, PhaseClosing) {
			return fmt.Errorf("phase %q: closing is not reachable", from)
		}
	}
	return nil
}
