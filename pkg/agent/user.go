package agent

import (
	"math/rand/v2"
	"slices"

	"github.com/voicetyped/simdial/pkg/complexity"
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

// requestRate is the chance each system slot joins a goal's request list.
const requestRate = 0.5

// Goal is one search the user wants done: a target value for every user
// slot and the system slots to have reported. Goals are fixed at
// construction.
type Goal struct {
	Constraints []dialog.Constraint
	Requests    []string
}

// Value returns the target value of a user slot.
func (g Goal) Value(slot string) (dialog.Value, bool) {
	for _, c := range g.Constraints {
		if c.Slot == slot {
			return c.Value, true
		}
	}
	return dialog.NoValue, false
}

// User is the simulated user. It is owned by a single dialog and is not
// safe for concurrent use.
type User struct {
	dom  *domain.Domain
	prof *complexity.Profile
	rng  *rand.Rand

	goals   []Goal
	current int

	// Per-episode state.
	announced bool
	informed  map[string]bool
	askedYN   map[string]bool
	openYN    *dialog.Act
	extra     []string
	moreUsed  bool

	last []dialog.Act
	done bool
}

// NewUser creates a user agent and draws its goals from rng.
func NewUser(d *domain.Domain, p *complexity.Profile, rng *rand.Rand) (*User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	u := &User{dom: d, prof: p, rng: rng}
	for range p.Proposition.MaxGoals {
		u.goals = append(u.goals, u.drawGoal())
	}
	u.resetEpisode()
	return u, nil
}

func (u *User) drawGoal() Goal {
	var g Goal
	for _, slot := range u.dom.UsrSlots() {
		v := dialog.DontCare
		if !chance(u.rng, u.prof.Proposition.DontCare) {
			v = dialog.Value(u.rng.IntN(slot.Size()))
		}
		g.Constraints = append(g.Constraints, dialog.Constraint{Slot: slot.Name, Value: v})
	}
	sys := u.dom.SysSlots()
	for _, slot := range sys {
		if u.rng.Float64() < requestRate {
			g.Requests = append(g.Requests, slot.Name)
		}
	}
	if len(g.Requests) == 0 {
		g.Requests = append(g.Requests, sys[u.rng.IntN(len(sys))].Name)
	}
	return g
}

func (u *User) resetEpisode() {
	u.announced = false
	u.informed = make(map[string]bool)
	u.askedYN = make(map[string]bool)
	u.openYN = nil
	u.extra = nil
	u.moreUsed = false
}

// Goals returns the goals drawn at construction.
func (u *User) Goals() []Goal {
	return slices.Clone(u.goals)
}

// Goal returns the goal of the current episode.
func (u *User) Goal() Goal {
	return u.goals[u.current]
}

// Step answers the system acts of the previous turn.
func (u *User) Step(sys []dialog.Act) []dialog.Act {
	if u.done || dialog.HasKind(sys, dialog.SysGoodbye) {
		u.done = true
		return []dialog.Act{dialog.Goodbye()}
	}
	if isClarification(sys) && len(u.last) > 0 {
		return u.withChat(dialog.CloneActs(u.last))
	}

	var out []dialog.Act
	informed := false
	for _, a := range sys {
		switch a.Kind {
		case dialog.SysRequest:
			switch a.Slot {
			case dialog.SlotNeed:
				out = append(out, dialog.Request(dialog.SlotDefault))
			case dialog.SlotHappy:
				informed = true
			default:
				out = append(out, u.inform(a.Slot))
			}
		case dialog.SysExplicitConfirm, dialog.SysImplicitConfirm:
			out = append(out, u.confirm(a)...)
		case dialog.SysInform:
			for _, r := range a.Results {
				u.informed[r.Slot] = true
				if u.openYN != nil && u.openYN.Slot == r.Slot {
					u.openYN = nil
				}
			}
			informed = true
		case dialog.SysGreet, dialog.SysQuery, dialog.SysAskRepeat, dialog.SysAskRephrase, dialog.SysClarify:
		}
	}

	switch {
	case !u.announced:
		for _, slot := range u.Goal().Requests {
			out = append(out, dialog.Request(slot))
		}
		u.announced = true
	case informed || len(out) == 0:
		out = append(out, u.afterInform()...)
	}

	u.last = dialog.CloneActs(out)
	return u.withChat(out)
}

func isClarification(sys []dialog.Act) bool {
	if len(sys) == 0 {
		return false
	}
	for _, a := range sys {
		switch a.Kind {
		case dialog.SysAskRepeat, dialog.SysAskRephrase, dialog.SysClarify:
		default:
			return false
		}
	}
	return true
}

func (u *User) inform(slot string) dialog.Act {
	v, _ := u.Goal().Value(slot)
	if chance(u.rng, u.prof.Interaction.SelfCorrect) {
		if wrong, ok := u.different(slot, v); ok {
			return dialog.SelfCorrectedInform(slot, v, wrong)
		}
	}
	return dialog.Inform(slot, v)
}

// different samples a user-slot value other than v.
func (u *User) different(slot string, v dialog.Value) (dialog.Value, bool) {
	s, err := u.dom.UsrSlot(slot)
	if err != nil {
		return dialog.NoValue, false
	}
	var candidates []dialog.Value
	for i := range s.Size() {
		if dialog.Value(i) != v {
			candidates = append(candidates, dialog.Value(i))
		}
	}
	if len(candidates) == 0 {
		return dialog.NoValue, false
	}
	return candidates[u.rng.IntN(len(candidates))], true
}

func (u *User) confirm(a dialog.Act) []dialog.Act {
	want, ok := u.Goal().Value(a.Slot)
	if !ok || a.Value == want {
		return []dialog.Act{dialog.Confirm(a.Slot)}
	}
	out := []dialog.Act{dialog.Disconfirm(a.Slot)}
	if chance(u.rng, u.prof.Proposition.RejectInform) {
		out = append(out, dialog.Inform(a.Slot, want))
	}
	return out
}

func (u *User) requested() []string {
	return append(slices.Clone(u.Goal().Requests), u.extra...)
}

// afterInform decides what to do once the system has reported something:
// ask a yes/no question, chase missing reports or wrap the search up.
func (u *User) afterInform() []dialog.Act {
	var out []dialog.Act
	requested := u.requested()

	if u.openYN == nil && chance(u.rng, u.prof.Proposition.YNQuestion) {
		var candidates []*domain.Slot
		for _, s := range u.dom.SysSlots() {
			if !slices.Contains(requested, s.Name) && !u.askedYN[s.Name] {
				candidates = append(candidates, s)
			}
		}
		if len(candidates) > 0 {
			s := candidates[u.rng.IntN(len(candidates))]
			q := dialog.YNQuestion(s.Name, dialog.Value(u.rng.IntN(s.Size())))
			u.askedYN[s.Name] = true
			u.openYN = &q
			out = append(out, q)
		}
	}

	var missing []string
	for _, slot := range requested {
		if !u.informed[slot] {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		for _, slot := range missing {
			out = append(out, dialog.Request(slot))
		}
		return out
	}
	if u.openYN != nil {
		if len(out) == 0 {
			out = append(out, u.openYN.Clone())
		}
		return out
	}

	if u.current+1 < len(u.goals) && chance(u.rng, u.prof.Proposition.NewSearch) {
		u.current++
		u.resetEpisode()
		return []dialog.Act{dialog.NewSearch()}
	}
	if !u.moreUsed && chance(u.rng, u.prof.Proposition.MoreRequest) {
		var candidates []string
		for _, s := range u.dom.SysSlots() {
			if !slices.Contains(requested, s.Name) && !u.informed[s.Name] {
				candidates = append(candidates, s.Name)
			}
		}
		if len(candidates) > 0 {
			slot := candidates[u.rng.IntN(len(candidates))]
			u.extra = append(u.extra, slot)
			u.moreUsed = true
			return []dialog.Act{dialog.MoreRequest(), dialog.Request(slot)}
		}
	}
	return []dialog.Act{dialog.Satisfy()}
}

func (u *User) withChat(out []dialog.Act) []dialog.Act {
	if !chance(u.rng, u.prof.Social.ChitChat) {
		return out
	}
	pos := u.rng.IntN(len(out) + 1)
	return slices.Insert(out, pos, dialog.Chat())
}
