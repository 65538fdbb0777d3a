package dialog

import (
	"errors"
	"fmt"
)

var (
	// ErrDialogClosed is returned when a turn is appended after the terminal GOODBYE.
	ErrDialogClosed = errors.New("dialog is closed")
	// ErrTurnOrder is returned when turns do not alternate system/user.
	ErrTurnOrder = errors.New("turn order violated")
	// ErrForeignAct is returned for a turn carrying an act its speaker
	// cannot produce.
	ErrForeignAct = errors.New("act not valid for speaker")
)

// Turn is one agent emission.
type Turn struct {
	Speaker   Speaker
	Utterance string
	// Acts are the emitted acts for system turns and the observed acts for
	// user turns.
	Acts []Act
	// TrueActs holds the user's uncorrupted acts; nil for system turns.
	TrueActs []Act
	Lexical  []LexAct
	State    any
	Conf     float64
}

// Dialog is an ordered, append-only sequence of turns. It starts with a
// system GREET and is closed by a system GOODBYE.
type Dialog struct {
	Domain string
	Turns  []Turn
	closed bool
	// Forced is set when the turn ceiling ended the dialog.
	Forced bool
}

// NewDialog creates an empty dialog for the named domain.
func NewDialog(domain string) *Dialog {
	return &Dialog{Domain: domain}
}

// Append adds a turn, enforcing alternation, termination and that every act
// belongs to the speaker.
func (d *Dialog) Append(t Turn) error {
	if d.closed {
		return ErrDialogClosed
	}
	want := SpeakerSystem
	if len(d.Turns)%2 == 1 {
		want = SpeakerUser
	}
	if t.Speaker != want {
		return fmt.Errorf("%w: turn %d by %s, want %s", ErrTurnOrder, len(d.Turns), t.Speaker, want)
	}
	if len(d.Turns) == 0 && (len(t.Acts) == 0 || t.Acts[0].Kind != SysGreet) {
		return fmt.Errorf("%w: dialog must open with greet", ErrTurnOrder)
	}
	for _, acts := range [][]Act{t.Acts, t.TrueActs} {
		for _, a := range acts {
			if !KindOf(t.Speaker, a.Kind) {
				return fmt.Errorf("%w: %s act %q in turn %d", ErrForeignAct, t.Speaker, a.Kind, len(d.Turns))
			}
		}
	}
	d.Turns = append(d.Turns, t)
	if t.Speaker == SpeakerSystem && HasKind(t.Acts, SysGoodbye) {
		d.closed = true
	}
	return nil
}

// Closed reports whether the terminal GOODBYE has been appended.
func (d *Dialog) Closed() bool {
	return d.closed
}

// Len returns the number of turns.
func (d *Dialog) Len() int {
	return len(d.Turns)
}

// Queries counts the system turns that issued a knowledge base query.
func (d *Dialog) Queries() int {
	n := 0
	for _, t := range d.Turns {
		if t.Speaker == SpeakerSystem && HasKind(t.Acts, SysQuery) {
			n++
		}
	}
	return n
}
