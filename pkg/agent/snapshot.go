package agent

import (
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

// SlotState is the recorded belief about one user slot. Value is nil while
// the slot is unknown.
type SlotState struct {
	Name   string  `json:"name"`
	Value  *string `json:"value"`
	Conf   float64 `json:"conf"`
	Status string  `json:"status"`
}

// GoalState is a system slot the user asked about.
type GoalState struct {
	Name     string  `json:"name"`
	Value    *string `json:"value"`
	Reported bool    `json:"reported"`
}

// Snapshot is the system agent state attached to every system turn.
type Snapshot struct {
	Phase     Phase       `json:"phase"`
	Episode   int         `json:"episode"`
	UsrSlots  []SlotState `json:"usr_slots"`
	SysGoals  []GoalState `json:"sys_goals"`
	KBMatches int         `json:"kb_matches,omitempty"`
}

// Slot returns the state of the named user slot.
func (s Snapshot) Slot(name string) (SlotState, bool) {
	for _, st := range s.UsrSlots {
		if st.Name == name {
			return st, true
		}
	}
	return SlotState{}, false
}

func literal(slot *domain.Slot, v dialog.Value) *string {
	if v == dialog.NoValue {
		return nil
	}
	s, err := slot.Lexicalize(v)
	if err != nil {
		return nil
	}
	return &s
}
