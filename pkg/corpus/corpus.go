// Package corpus serializes generated dialogs and computes corpus statistics.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

// Turn is the serialized form of a dialog turn. System turns carry State,
// user turns carry Conf; the field order is the one written to disk.
type Turn struct {
	Speaker dialog.Speaker  `json:"speaker"`
	Utt     string          `json:"utt"`
	Actions []dialog.LexAct `json:"actions"`
	Conf    *float64        `json:"conf,omitempty"`
	Domain  string          `json:"domain"`
	State   any             `json:"state,omitempty"`
}

// Corpus is the on-disk corpus: the dialogs and the domain they were
// generated for.
type Corpus struct {
	Dialogs [][]Turn    `json:"dialogs"`
	Meta    domain.Spec `json:"meta"`
}

// New converts generated dialogs to their serialized form.
func New(spec domain.Spec, dialogs []*dialog.Dialog) *Corpus {
	c := &Corpus{Dialogs: make([][]Turn, 0, len(dialogs)), Meta: spec}
	for _, d := range dialogs {
		turns := make([]Turn, 0, d.Len())
		for _, t := range d.Turns {
			out := Turn{
				Speaker: t.Speaker,
				Utt:     t.Utterance,
				Actions: t.Lexical,
				Domain:  d.Domain,
			}
			if out.Actions == nil {
				out.Actions = []dialog.LexAct{}
			}
			if t.Speaker == dialog.SpeakerUser {
				conf := t.Conf
				out.Conf = &conf
			} else {
				out.State = t.State
			}
			turns = append(turns, out)
		}
		c.Dialogs = append(c.Dialogs, turns)
	}
	return c
}

// WriteJSON writes the corpus as indented JSON. Non-ASCII text is written
// as is.
func (c *Corpus) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return nil
}

// FileName returns the conventional corpus file name.
func FileName(domainName, complexity string, size int, ext string) string {
	return fmt.Sprintf("%s-%s-%d.%s", domainName, complexity, size, ext)
}

// WriteFile creates dir if needed and writes to dir/name using write.
// It returns the path written.
func WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", path, err)
	}
	return path, nil
}
