package channel

import (
	"math/rand/v2"
	"strings"

	"github.com/voicetyped/simdial/pkg/complexity"
)

var fillers = []string{"uhm", "uh", "hmm", "well"}

// WordChannel perturbs the rendered user utterance. It never changes the
// acts, only what the transcript looks like.
type WordChannel struct {
	wordNoise  float64
	hesitation float64
}

// NewWordChannel creates a word channel for a profile.
func NewWordChannel(p *complexity.Profile) *WordChannel {
	return &WordChannel{
		wordNoise:  p.Environment.WordNoise,
		hesitation: p.Interaction.Hesitation,
	}
}

// Transmit returns the perturbed text.
func (c *WordChannel) Transmit(text string, rng *rand.Rand) string {
	if text == "" || (c.wordNoise == 0 && c.hesitation == 0) {
		return text
	}

	words := strings.Fields(text)
	out := make([]string, 0, len(words)+1)
	for _, w := range words {
		if c.wordNoise == 0 || rng.Float64() >= c.wordNoise {
			out = append(out, w)
			continue
		}
		switch rng.IntN(3) {
		case 0:
			out = append(out, swapChars(w, rng))
		case 1:
			// dropped
		default:
			out = append(out, stutter(w))
		}
	}

	if c.hesitation > 0 && rng.Float64() < c.hesitation {
		pos := rng.IntN(len(out) + 1)
		out = append(out[:pos], append([]string{fillers[rng.IntN(len(fillers))]}, out[pos:]...)...)
	}
	return strings.Join(out, " ")
}

func swapChars(w string, rng *rand.Rand) string {
	r := []rune(w)
	if len(r) < 2 {
		return stutter(w)
	}
	i := rng.IntN(len(r) - 1)
	r[i], r[i+1] = r[i+1], r[i]
	return string(r)
}

func stutter(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	return string(r[0]) + "-" + w
}
