// Package channel simulates the recognition noise between the user and the
// system: the action channel corrupts dialog acts and reports a confidence,
// the word channel perturbs surface text.
package channel

import (
	"math/rand/v2"

	"github.com/voicetyped/simdial/pkg/complexity"
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

// Corruption penalties are drawn from [minPenalty, minPenalty+penaltySpan).
const (
	minPenalty  = 0.5
	penaltySpan = 0.5
)

// ActionChannel corrupts user acts on their way to the system agent.
type ActionChannel struct {
	dom   *domain.Domain
	noise float64
}

// NewActionChannel creates an action channel for a domain and profile.
func NewActionChannel(d *domain.Domain, p *complexity.Profile) *ActionChannel {
	return &ActionChannel{dom: d, noise: p.Environment.Noise}
}

// Transmit returns the acts the system observes and the recognition
// confidence. CHAT passes through untouched and does not count towards the
// confidence. Without any corruption the confidence is exactly 1.
func (c *ActionChannel) Transmit(acts []dialog.Act, rng *rand.Rand) ([]dialog.Act, float64) {
	observed := make([]dialog.Act, 0, len(acts))
	var penalty float64
	var onTask int

	for _, a := range acts {
		if a.Kind == dialog.UsrChat {
			observed = append(observed, a.Clone())
			continue
		}
		onTask++
		if c.noise == 0 || rng.Float64() >= c.noise {
			observed = append(observed, a.Clone())
			continue
		}
		penalty += minPenalty + penaltySpan*rng.Float64()
		if out, ok := c.corrupt(a, rng); ok {
			observed = append(observed, out)
		}
	}

	if onTask == 0 || penalty == 0 {
		return observed, 1.0
	}
	conf := 1 - penalty/float64(onTask)
	return observed, min(max(conf, 0), 1)
}

// corrupt returns the altered act, or false when the act is lost.
func (c *ActionChannel) corrupt(a dialog.Act, rng *rand.Rand) (dialog.Act, bool) {
	out := a.Clone()
	switch a.Kind {
	case dialog.UsrInform:
		slot, err := c.dom.UsrSlot(a.Slot)
		if err != nil {
			return out, false
		}
		out.Wrong = dialog.NoValue
		switch rng.IntN(3) {
		case 0:
			out.Value = garble(slot, a.Value, rng)
		case 1:
			if a.Value == dialog.DontCare {
				out.Value = garble(slot, a.Value, rng)
			} else {
				out.Value = dialog.DontCare
			}
		default:
			return out, false
		}
		return out, true

	case dialog.UsrConfirm, dialog.UsrDisconfirm:
		if rng.IntN(2) == 0 {
			return out, false
		}
		if a.Kind == dialog.UsrConfirm {
			out.Kind = dialog.UsrDisconfirm
		} else {
			out.Kind = dialog.UsrConfirm
		}
		return out, true

	case dialog.UsrRequest:
		sys := c.dom.SysSlots()
		if len(sys) < 2 || rng.IntN(2) == 0 {
			return out, false
		}
		for out.Slot == a.Slot {
			out.Slot = sys[rng.IntN(len(sys))].Name
		}
		return out, true

	case dialog.UsrYNQuestion:
		slot, err := c.dom.SysSlot(a.Slot)
		if err != nil || slot.Size() < 2 || rng.IntN(2) == 0 {
			return out, false
		}
		for out.Value == a.Value {
			out.Value = dialog.Value(rng.IntN(slot.Size()))
		}
		return out, true
	}
	return out, false
}

// garble picks a vocabulary value different from v. A single-value slot
// can only be misheard as don't-care.
func garble(slot *domain.Slot, v dialog.Value, rng *rand.Rand) dialog.Value {
	n := slot.Size()
	if n == 1 && v != dialog.DontCare {
		return dialog.DontCare
	}
	for {
		w := dialog.Value(rng.IntN(n))
		if w != v {
			return w
		}
	}
}
