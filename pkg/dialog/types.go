package dialog

import "slices"

// Speaker identifies which agent produced a turn.
type Speaker string

const (
	SpeakerSystem Speaker = "SYS"
	SpeakerUser   Speaker = "USR"
)

// Value is an index into a slot vocabulary.
type Value int

const (
	// DontCare means the user has no preference for the slot.
	DontCare Value = -1
	// NoValue marks an absent optional parameter.
	NoValue Value = -2
)

// Meta slots. REQUEST acts and INFORM results use them where no domain slot
// is addressed.
const (
	// SlotNeed is the system's opening "how can I help" request.
	SlotNeed = "#need"
	// SlotHappy is the system's "anything else?" request once every goal
	// has been reported.
	SlotHappy = "#happy"
	// SlotDefault is the domain itself: the user requests it to open a
	// search and the system informs the number of the entity a query found.
	SlotDefault = "#default"
)

// ActKind is the closed set of dialog act kinds for both agents.
//
// The two sets share the values inform, request and goodbye, so a kind only
// identifies an act together with the speaker of its turn. The serialized
// corpus relies on the same pairing: the act name sits next to "speaker".
// Use IsSystemKind and IsUserKind to check a kind against a speaker.
type ActKind string

// System act kinds.
const (
	SysGreet           ActKind = "greet"
	SysRequest         ActKind = "request"
	SysExplicitConfirm ActKind = "explicit_confirm"
	SysImplicitConfirm ActKind = "implicit_confirm"
	SysQuery           ActKind = "query"
	SysInform          ActKind = "inform"
	SysAskRepeat       ActKind = "ask_repeat"
	SysAskRephrase     ActKind = "ask_rephrase"
	SysClarify         ActKind = "clarify"
	SysGoodbye         ActKind = "goodbye"
)

// User act kinds.
const (
	UsrInform      ActKind = "inform"
	UsrRequest     ActKind = "request"
	UsrYNQuestion  ActKind = "yn_question"
	UsrConfirm     ActKind = "confirm"
	UsrDisconfirm  ActKind = "disconfirm"
	UsrChat        ActKind = "chat"
	UsrSatisfy     ActKind = "satisfy"
	UsrMoreRequest ActKind = "more_request"
	UsrNewSearch   ActKind = "new_search"
	UsrGoodbye     ActKind = "goodbye"
)

// Constraint is one resolved user-slot constraint carried by a QUERY.
type Constraint struct {
	Slot  string
	Value Value
}

// Query is the payload of a system QUERY act.
type Query struct {
	Constraints []Constraint
	Goals       []string
}

// Result is one system-slot report inside a system INFORM act.
// Expected is NoValue unless the user asked a yes/no question about the slot.
type Result struct {
	Slot     string
	Value    Value
	Expected Value
}

// Act is a single dialog act. Which fields are meaningful depends on Kind;
// acts are treated as immutable once emitted.
type Act struct {
	Kind    ActKind
	Slot    string
	Value   Value
	Wrong   Value
	Query   *Query
	Results []Result
}

// Clone returns a deep copy of the act.
func (a Act) Clone() Act {
	c := a
	if a.Query != nil {
		c.Query = &Query{
			Constraints: slices.Clone(a.Query.Constraints),
			Goals:       slices.Clone(a.Query.Goals),
		}
	}
	c.Results = slices.Clone(a.Results)
	return c
}

// CloneActs deep-copies a list of acts.
func CloneActs(acts []Act) []Act {
	if acts == nil {
		return nil
	}
	out := make([]Act, len(acts))
	for i, a := range acts {
		out[i] = a.Clone()
	}
	return out
}

// Kinds returns the kinds of the given acts in order.
func Kinds(acts []Act) []ActKind {
	out := make([]ActKind, len(acts))
	for i, a := range acts {
		out[i] = a.Kind
	}
	return out
}

// HasKind reports whether any act has the given kind.
func HasKind(acts []Act, kind ActKind) bool {
	for _, a := range acts {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func simple(kind ActKind) Act {
	return Act{Kind: kind, Value: NoValue, Wrong: NoValue}
}

func slotted(kind ActKind, slot string, v Value) Act {
	return Act{Kind: kind, Slot: slot, Value: v, Wrong: NoValue}
}

// Greet builds a system GREET.
func Greet() Act { return simple(SysGreet) }

// Goodbye builds a GOODBYE for either speaker; SysGoodbye and UsrGoodbye
// are the same value.
func Goodbye() Act { return simple(SysGoodbye) }

// AskRepeat builds a system ASK_REPEAT.
func AskRepeat() Act { return simple(SysAskRepeat) }

// AskRephrase builds a system ASK_REPHRASE.
func AskRephrase() Act { return simple(SysAskRephrase) }

// Clarify builds a system CLARIFY.
func Clarify() Act { return simple(SysClarify) }

// Request builds a REQUEST for a slot; the system requests user slots and
// the user requests system slots.
func Request(slot string) Act { return slotted(SysRequest, slot, NoValue) }

// ExplicitConfirm builds a system EXPLICIT_CONFIRM of a candidate value.
func ExplicitConfirm(slot string, v Value) Act { return slotted(SysExplicitConfirm, slot, v) }

// ImplicitConfirm builds a system IMPLICIT_CONFIRM of the current belief.
func ImplicitConfirm(slot string, v Value) Act { return slotted(SysImplicitConfirm, slot, v) }

// QueryAct builds the system QUERY commit act.
func QueryAct(q Query) Act {
	a := simple(SysQuery)
	a.Query = &q
	return a
}

// InformResults builds a system INFORM batch.
func InformResults(results []Result) Act {
	a := simple(SysInform)
	a.Results = results
	return a
}

// Inform builds a user INFORM of a user-slot value.
func Inform(slot string, v Value) Act { return slotted(UsrInform, slot, v) }

// SelfCorrectedInform builds a user INFORM that first states wrong and then
// corrects it to v.
func SelfCorrectedInform(slot string, v, wrong Value) Act {
	a := slotted(UsrInform, slot, v)
	a.Wrong = wrong
	return a
}

// YNQuestion builds a user yes/no question expecting value v for a system slot.
func YNQuestion(slot string, v Value) Act { return slotted(UsrYNQuestion, slot, v) }

// Confirm builds a user CONFIRM.
func Confirm(slot string) Act { return slotted(UsrConfirm, slot, NoValue) }

// Disconfirm builds a user DISCONFIRM.
func Disconfirm(slot string) Act { return slotted(UsrDisconfirm, slot, NoValue) }

// Chat builds an off-task user CHAT.
func Chat() Act { return simple(UsrChat) }

// Satisfy builds a user SATISFY.
func Satisfy() Act { return simple(UsrSatisfy) }

// MoreRequest builds a user MORE_REQUEST.
func MoreRequest() Act { return simple(UsrMoreRequest) }

// NewSearch builds a user NEW_SEARCH.
func NewSearch() Act { return simple(UsrNewSearch) }

// KindOf reports whether kind belongs to the act set of speaker.
func KindOf(speaker Speaker, kind ActKind) bool {
	switch speaker {
	case SpeakerSystem:
		return IsSystemKind(kind)
	case SpeakerUser:
		return IsUserKind(kind)
	}
	return false
}

// IsSystemKind reports whether kind is a known system act kind.
func IsSystemKind(kind ActKind) bool {
	switch kind {
	case SysGreet, SysRequest, SysExplicitConfirm, SysImplicitConfirm, SysQuery,
		SysInform, SysAskRepeat, SysAskRephrase, SysClarify, SysGoodbye:
		return true
	}
	return false
}

// IsUserKind reports whether kind is a known user act kind.
func IsUserKind(kind ActKind) bool {
	switch kind {
	case UsrInform, UsrRequest, UsrYNQuestion, UsrConfirm, UsrDisconfirm,
		UsrChat, UsrSatisfy, UsrMoreRequest, UsrNewSearch, UsrGoodbye:
		return true
	}
	return false
}

// LexAct is the lexicalized, serializable form of an act.
type LexAct struct {
	Act        ActKind `json:"act"`
	Parameters []any   `json:"parameters"`
}
