package agent

import (
	"fmt"
	"math/rand/v2"

	"github.com/voicetyped/simdial/pkg/complexity"
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

type slotStatus string

const (
	statusUnknown   slotStatus = "unknown"
	statusExplicit  slotStatus = "explicit"
	statusImplicit  slotStatus = "implicit"
	statusConfirmed slotStatus = "confirmed"
	statusDontCare  slotStatus = "dont_care"
)

// belief is the system's view of one user slot.
type belief struct {
	slot   *domain.Slot
	value  dialog.Value
	conf   float64
	status slotStatus
	// announced is set once an IMPLICIT_CONFIRM restated the belief.
	announced bool
	// attempts counts REQUEST and EXPLICIT_CONFIRM acts spent on the slot.
	attempts int
}

func (b *belief) resolved() bool {
	return b.status == statusConfirmed || b.status == statusDontCare
}

func (b *belief) clear() {
	b.value = dialog.NoValue
	b.conf = 0
	b.status = statusUnknown
	b.announced = false
}

func (b *belief) accept() {
	if b.value == dialog.DontCare {
		b.status = statusDontCare
		return
	}
	b.status = statusConfirmed
}

func (b *belief) giveUp() {
	b.value = dialog.DontCare
	b.status = statusDontCare
	b.announced = false
}

// sysGoal is a system slot the user asked to have reported.
type sysGoal struct {
	slot     string
	value    dialog.Value
	reported bool
}

// System is the system-side agent. It is owned by a single dialog and is
// not safe for concurrent use.
type System struct {
	dom  *domain.Domain
	prof *complexity.Profile
	rng  *rand.Rand
	kb   *KB
	fsm  *PhaseMachine
	mode complexity.ConfirmMode

	beliefs []*belief
	goals   []*sysGoal
	// expect holds YN expectations from the user turn being handled.
	expect map[string]dialog.Value
	// pending holds the questions of the last non-clarification turn.
	pending   []dialog.Act
	clarifies int
	episode   int
	entity    *Entity
}

// NewSystem creates a system agent. With a mixed confirmation mode decided
// per dialog the concrete mode is drawn here, once.
func NewSystem(d *domain.Domain, p *complexity.Profile, rng *rand.Rand) (*System, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateTransitions(); err != nil {
		return nil, err
	}

	s := &System{
		dom:  d,
		prof: p,
		rng:  rng,
		kb:   NewKB(d),
		fsm:  NewPhaseMachine(),
		mode: p.Interaction.Confirmation.Mode,
	}
	c := p.Interaction.Confirmation
	if c.Mode == complexity.ConfirmMixed && c.Selection == complexity.SelectPerDialog {
		s.mode = complexity.ConfirmImplicit
		if chance(rng, c.ExplicitRate) {
			s.mode = complexity.ConfirmExplicit
		}
	}
	for _, slot := range d.UsrSlots() {
		b := &belief{slot: slot}
		b.clear()
		s.beliefs = append(s.beliefs, b)
	}
	return s, nil
}

// Step consumes the observed user acts of the previous turn and their
// confidence and returns the next system acts. The boolean is true when the
// returned turn ends the dialog.
func (s *System) Step(observed []dialog.Act, conf float64) ([]dialog.Act, bool, error) {
	switch s.fsm.Current() {
	case PhaseClosing:
		return nil, true, dialog.ErrDialogClosed
	case PhaseGreeting:
		if err := s.fsm.Transition(PhaseCollecting); err != nil {
			return nil, false, err
		}
		out, err := s.collect()
		if err != nil {
			return nil, false, err
		}
		opening := []dialog.Act{dialog.Greet()}
		if s.dom.HasDefault() {
			opening = append(opening, dialog.Request(dialog.SlotNeed))
		}
		return append(opening, out...), false, nil
	}

	s.expect = make(map[string]dialog.Value)
	if kind, ok := s.needsClarification(observed, conf); ok {
		return s.clarify(kind)
	}

	switch s.fsm.Current() {
	case PhaseCollecting:
		return s.onCollecting(observed, conf)
	case PhaseInforming:
		return s.onInforming(observed)
	}
	return nil, false, fmt.Errorf("%w: step in phase %s", ErrIllegalTransition, s.fsm.Current())
}

// Close ends the dialog with a GOODBYE regardless of phase.
func (s *System) Close() ([]dialog.Act, error) {
	if s.fsm.Terminal() {
		return nil, dialog.ErrDialogClosed
	}
	out, _, err := s.close()
	return out, err
}

func (s *System) close() ([]dialog.Act, bool, error) {
	if err := s.fsm.Transition(PhaseClosing); err != nil {
		return nil, false, err
	}
	s.pending = nil
	return []dialog.Act{dialog.Goodbye()}, true, nil
}

// needsClarification decides whether the observed turn can be interpreted.
// Unheard turns are answered with ASK_REPEAT, off-task ones with CLARIFY and
// on-task turns that ignore the pending questions with ASK_REPHRASE.
func (s *System) needsClarification(observed []dialog.Act, conf float64) (dialog.ActKind, bool) {
	if conf < s.prof.Interaction.Confirmation.Low || len(observed) == 0 {
		return dialog.SysAskRepeat, true
	}
	onTask := false
	for _, a := range observed {
		if a.Kind != dialog.UsrChat {
			onTask = true
			break
		}
	}
	if !onTask {
		return dialog.SysClarify, true
	}
	if conf < 1 && len(s.pending) > 0 && !answersPending(s.pending, observed) {
		return dialog.SysAskRephrase, true
	}
	return "", false
}

func answersPending(pending, observed []dialog.Act) bool {
	for _, q := range pending {
		for _, a := range observed {
			if a.Slot != q.Slot {
				continue
			}
			switch a.Kind {
			case dialog.UsrInform:
				return true
			case dialog.UsrConfirm, dialog.UsrDisconfirm:
				if q.Kind == dialog.SysExplicitConfirm {
					return true
				}
			}
		}
	}
	return false
}

func (s *System) clarify(kind dialog.ActKind) ([]dialog.Act, bool, error) {
	if s.clarifies >= s.prof.Interaction.MaxClarify {
		s.clarifies = 0
		return s.forceAdvance()
	}
	s.clarifies++
	switch kind {
	case dialog.SysAskRepeat:
		return []dialog.Act{dialog.AskRepeat()}, false, nil
	case dialog.SysAskRephrase:
		return []dialog.Act{dialog.AskRephrase()}, false, nil
	}
	return []dialog.Act{dialog.Clarify()}, false, nil
}

// forceAdvance gives up on the current question: slots under question become
// don't-care while collecting, and an informing dialog is closed.
func (s *System) forceAdvance() ([]dialog.Act, bool, error) {
	if s.fsm.Current() != PhaseCollecting {
		return s.close()
	}
	questioned := make(map[string]bool, len(s.pending))
	for _, q := range s.pending {
		questioned[q.Slot] = true
	}
	for _, b := range s.beliefs {
		switch {
		case b.resolved():
		case b.status == statusImplicit && b.announced:
			b.accept()
		case len(questioned) == 0 || questioned[b.slot.Name]:
			b.giveUp()
		}
	}
	out, err := s.collect()
	return out, false, err
}

func (s *System) belief(slot string) *belief {
	for _, b := range s.beliefs {
		if b.slot.Name == slot {
			return b
		}
	}
	return nil
}

func (s *System) onCollecting(observed []dialog.Act, conf float64) ([]dialog.Act, bool, error) {
	s.clarifies = 0
	var restated []*belief
	for _, b := range s.beliefs {
		if b.status == statusImplicit && b.announced {
			restated = append(restated, b)
		}
	}

	touched := make(map[string]bool)
	for _, a := range observed {
		switch a.Kind {
		case dialog.UsrInform:
			if b := s.belief(a.Slot); b != nil {
				s.setBelief(b, a.Value, conf)
				touched[a.Slot] = true
			}
		case dialog.UsrConfirm:
			if b := s.belief(a.Slot); b != nil && (b.status == statusExplicit || b.status == statusImplicit) {
				b.accept()
				touched[a.Slot] = true
			}
		case dialog.UsrDisconfirm:
			if b := s.belief(a.Slot); b != nil && (b.status == statusExplicit || b.status == statusImplicit) {
				b.clear()
				touched[a.Slot] = true
			}
		case dialog.UsrRequest:
			s.addGoal(a.Slot)
		case dialog.UsrYNQuestion:
			s.addGoal(a.Slot)
			s.expect[a.Slot] = a.Value
		case dialog.UsrGoodbye:
			return s.close()
		case dialog.UsrChat, dialog.UsrSatisfy, dialog.UsrMoreRequest, dialog.UsrNewSearch:
		}
	}

	for _, b := range restated {
		if !touched[b.slot.Name] && b.status == statusImplicit {
			b.accept()
		}
	}
	out, err := s.collect()
	return out, false, err
}

func (s *System) setBelief(b *belief, v dialog.Value, conf float64) {
	b.value = v
	b.conf = conf
	b.announced = false

	c := s.prof.Interaction.Confirmation
	if conf >= c.Accept {
		b.accept()
		return
	}
	switch s.confirmMode() {
	case complexity.ConfirmNone:
		b.accept()
	case complexity.ConfirmExplicit:
		b.status = statusExplicit
	default:
		if conf >= c.High {
			b.status = statusImplicit
		} else {
			b.status = statusExplicit
		}
	}
}

// confirmMode returns the mode for one confirmation; only a per-turn mixed
// mode is still undecided at this point.
func (s *System) confirmMode() complexity.ConfirmMode {
	if s.mode != complexity.ConfirmMixed {
		return s.mode
	}
	if chance(s.rng, s.prof.Interaction.Confirmation.ExplicitRate) {
		return complexity.ConfirmExplicit
	}
	return complexity.ConfirmImplicit
}

// collect emits the next confirmation or request batch, or the QUERY once
// every user slot is resolved.
func (s *System) collect() ([]dialog.Act, error) {
	limit := 1
	if s.prof.Proposition.MultiSlot {
		limit = s.prof.Proposition.GroupSize
	}
	budget := s.prof.Interaction.MaxSlotAttempts

	var out, questions []dialog.Act
	for _, b := range s.beliefs {
		if b.status == statusImplicit && !b.announced {
			out = append(out, dialog.ImplicitConfirm(b.slot.Name, b.value))
			b.announced = true
		}
	}
	for _, b := range s.beliefs {
		if b.status != statusExplicit || len(questions) >= limit {
			continue
		}
		if b.attempts >= budget {
			b.giveUp()
			continue
		}
		b.attempts++
		questions = append(questions, dialog.ExplicitConfirm(b.slot.Name, b.value))
	}
	if len(questions) == 0 {
		for _, b := range s.beliefs {
			if b.status != statusUnknown || len(questions) >= limit {
				continue
			}
			if b.attempts >= budget {
				b.giveUp()
				continue
			}
			b.attempts++
			questions = append(questions, dialog.Request(b.slot.Name))
		}
	}

	s.pending = questions
	out = append(out, questions...)
	if len(out) > 0 {
		return out, nil
	}
	return s.query()
}

// query commits the resolved constraints to a knowledge base entity and
// emits the QUERY together with the first INFORM batch.
func (s *System) query() ([]dialog.Act, error) {
	if err := s.fsm.Transition(PhaseQuerying); err != nil {
		return nil, err
	}

	constraints := make([]dialog.Constraint, 0, len(s.beliefs))
	for _, b := range s.beliefs {
		constraints = append(constraints, dialog.Constraint{Slot: b.slot.Name, Value: b.value})
	}
	entity := s.kb.Search(constraints, s.rng)
	s.entity = &entity

	goals := make([]string, 0, len(s.goals))
	for _, g := range s.goals {
		v, err := s.kb.Value(entity, g.slot)
		if err != nil {
			return nil, err
		}
		g.value = v
		goals = append(goals, g.slot)
	}

	if err := s.fsm.Transition(PhaseInforming); err != nil {
		return nil, err
	}
	out := []dialog.Act{dialog.QueryAct(dialog.Query{Constraints: constraints, Goals: goals})}
	var results []dialog.Result
	if s.dom.HasDefault() {
		results = append(results, dialog.Result{Slot: dialog.SlotDefault, Value: s.kb.Number(entity), Expected: dialog.NoValue})
	}
	if inform, ok := s.informBatch(); ok {
		results = append(results, inform.Results...)
	}
	if len(results) > 0 {
		out = append(out, dialog.InformResults(results))
	}
	return s.offerMore(out), nil
}

// offerMore asks whether the user needs anything else once every goal has
// been reported.
func (s *System) offerMore(out []dialog.Act) []dialog.Act {
	for _, g := range s.goals {
		if !g.reported {
			return out
		}
	}
	return append(out, dialog.Request(dialog.SlotHappy))
}

func (s *System) addGoal(slot string) {
	if _, err := s.dom.SysSlot(slot); err != nil {
		return
	}
	for _, g := range s.goals {
		if g.slot == slot {
			return
		}
	}
	g := &sysGoal{slot: slot, value: dialog.NoValue}
	if s.entity != nil {
		if v, err := s.kb.Value(*s.entity, slot); err == nil {
			g.value = v
		}
	}
	s.goals = append(s.goals, g)
}

// informBatch reports every goal not yet reported plus any slot the user
// just asked a yes/no question about.
func (s *System) informBatch() (dialog.Act, bool) {
	var results []dialog.Result
	for _, g := range s.goals {
		expected, asked := s.expect[g.slot]
		if g.reported && !asked {
			continue
		}
		r := dialog.Result{Slot: g.slot, Value: g.value, Expected: dialog.NoValue}
		if asked {
			r.Expected = expected
		}
		results = append(results, r)
		g.reported = true
	}
	if len(results) == 0 {
		return dialog.Act{}, false
	}
	return dialog.InformResults(results), true
}

func (s *System) onInforming(observed []dialog.Act) ([]dialog.Act, bool, error) {
	var done, newSearch bool
	for _, a := range observed {
		switch a.Kind {
		case dialog.UsrRequest:
			s.addGoal(a.Slot)
		case dialog.UsrYNQuestion:
			s.addGoal(a.Slot)
			s.expect[a.Slot] = a.Value
		case dialog.UsrSatisfy, dialog.UsrGoodbye:
			done = true
		case dialog.UsrNewSearch:
			newSearch = true
		case dialog.UsrMoreRequest, dialog.UsrInform, dialog.UsrConfirm, dialog.UsrDisconfirm, dialog.UsrChat:
		}
	}

	switch {
	case done:
		s.clarifies = 0
		return s.close()
	case newSearch:
		s.clarifies = 0
		s.newEpisode()
		if err := s.fsm.Transition(PhaseCollecting); err != nil {
			return nil, false, err
		}
		out, err := s.collect()
		return out, false, err
	}

	if inform, ok := s.informBatch(); ok {
		s.clarifies = 0
		return s.offerMore([]dialog.Act{inform}), false, nil
	}
	// Nothing new was asked for.
	return s.clarify(dialog.SysClarify)
}

func (s *System) newEpisode() {
	s.episode++
	for _, b := range s.beliefs {
		b.clear()
		b.attempts = 0
	}
	s.goals = nil
	s.entity = nil
	s.pending = nil
}

// Snapshot returns the lexicalized state of the agent.
func (s *System) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:    s.fsm.Current(),
		Episode:  s.episode,
		UsrSlots: make([]SlotState, 0, len(s.beliefs)),
		SysGoals: make([]GoalState, 0, len(s.goals)),
	}
	for _, b := range s.beliefs {
		snap.UsrSlots = append(snap.UsrSlots, SlotState{
			Name:   b.slot.Name,
			Value:  literal(b.slot, b.value),
			Conf:   b.conf,
			Status: string(b.status),
		})
	}
	for _, g := range s.goals {
		state := GoalState{Name: g.slot, Reported: g.reported}
		if slot, err := s.dom.SysSlot(g.slot); err == nil {
			state.Value = literal(slot, g.value)
		}
		snap.SysGoals = append(snap.SysGoals, state)
	}
	if s.entity != nil {
		snap.KBMatches = s.entity.Matches
	}
	return snap
}

func chance(rng *rand.Rand, p float64) bool {
	return p > 0 && rng.Float64() < p
}
