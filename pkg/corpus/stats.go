package corpus

import (
	"fmt"

	"github.com/voicetyped/simdial/pkg/dialog"
)

// Stats summarizes a corpus.
type Stats struct {
	Dialogs  int     `json:"dialogs"`
	AvgTurns float64 `json:"avg_turns"`
	MaxTurns int     `json:"max_turns"`
	// QueryFraction is the share of all turns that issued a query.
	QueryFraction float64 `json:"query_fraction"`
	// MeanQueryRatio averages the per-dialog share of query turns.
	MeanQueryRatio float64 `json:"mean_query_ratio"`
	Forced         int     `json:"forced"`
}

// Compute derives statistics from generated dialogs.
func Compute(dialogs []*dialog.Dialog) Stats {
	s := Stats{Dialogs: len(dialogs)}
	if len(dialogs) == 0 {
		return s
	}
	var turns, queries int
	var ratios float64
	for _, d := range dialogs {
		n := d.Len()
		q := d.Queries()
		turns += n
		queries += q
		s.MaxTurns = max(s.MaxTurns, n)
		if n > 0 {
			ratios += float64(q) / float64(n)
		}
		if d.Forced {
			s.Forced++
		}
	}
	s.AvgTurns = float64(turns) / float64(len(dialogs))
	if turns > 0 {
		s.QueryFraction = float64(queries) / float64(turns)
	}
	s.MeanQueryRatio = ratios / float64(len(dialogs))
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d dialogs, avg len %.2f, max len %d, query fraction %.4f, mean query ratio %.4f, %d forced",
		s.Dialogs, s.AvgTurns, s.MaxTurns, s.QueryFraction, s.MeanQueryRatio, s.Forced)
}
