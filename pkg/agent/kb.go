package agent

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

// Entity is the knowledge base record a QUERY committed to. Its system-slot
// values are a pure function of its identity.
type Entity struct {
	ID      uint64
	Matches int
}

// KB is the abstract catalog of a domain. It holds no rows; the number of
// matches is derived from db_size and the selectivity of the constraints.
type KB struct {
	dom *domain.Domain
}

// NewKB creates the catalog for a domain.
func NewKB(d *domain.Domain) *KB {
	return &KB{dom: d}
}

// Matches estimates how many records satisfy the constraints, assuming
// values are spread uniformly over each slot vocabulary. It is at least one.
func (kb *KB) Matches(constraints []dialog.Constraint) int {
	n := float64(kb.dom.DBSize())
	for _, c := range constraints {
		if c.Value == dialog.DontCare {
			continue
		}
		slot, err := kb.dom.UsrSlot(c.Slot)
		if err != nil {
			continue
		}
		n /= float64(slot.Size())
	}
	return max(1, int(math.Round(n)))
}

// Search commits to one matching entity drawn from rng.
func (kb *KB) Search(constraints []dialog.Constraint, rng *rand.Rand) Entity {
	matches := kb.Matches(constraints)
	pick := uint64(rng.IntN(matches))

	h := fnv.New64a()
	h.Write([]byte(kb.dom.Name()))
	var buf [8]byte
	for _, c := range constraints {
		h.Write([]byte(c.Slot))
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(c.Value)))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], pick)
	h.Write(buf[:])

	return Entity{ID: h.Sum64(), Matches: matches}
}

// Number returns the position of the entity in the catalog, in [0, db_size).
func (kb *KB) Number(e Entity) dialog.Value {
	return dialog.Value(e.ID % uint64(kb.dom.DBSize()))
}

// Value returns the entity's value for a system slot.
func (kb *KB) Value(e Entity, slot string) (dialog.Value, error) {
	s, err := kb.dom.SysSlot(slot)
	if err != nil {
		return dialog.NoValue, err
	}
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], e.ID)
	h.Write(buf[:])
	h.Write([]byte(slot))
	return dialog.Value(h.Sum64() % uint64(s.Size())), nil
}
