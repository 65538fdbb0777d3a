package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/voicetyped/simdial/pkg/dialog"
)

// WriteText writes a human-readable transcript. Turns without text fall back
// to their act list.
func WriteText(w io.Writer, dialogs []*dialog.Dialog) error {
	bw := bufio.NewWriter(w)
	for i, d := range dialogs {
		fmt.Fprintf(bw, "## DIALOG %d ##\n", i)
		for _, t := range d.Turns {
			text := t.Utterance
			if text == "" {
				text = joinActs(t.Lexical)
			}
			if t.Speaker == dialog.SpeakerUser {
				fmt.Fprintf(bw, "%s(%f)-> %s\n", t.Speaker, t.Conf, text)
			} else {
				fmt.Fprintf(bw, "%s -> %s\n", t.Speaker, text)
			}
		}
	}
	return bw.Flush()
}

// WriteTSV writes one "speaker<TAB>acts<TAB>utterance" line per turn with a
// blank line after each dialog. Query turns are left out.
func WriteTSV(w io.Writer, dialogs []*dialog.Dialog) error {
	bw := bufio.NewWriter(w)
	for _, d := range dialogs {
		for _, t := range d.Turns {
			if t.Speaker == dialog.SpeakerSystem && dialog.HasKind(t.Acts, dialog.SysQuery) {
				continue
			}
			speaker := "User"
			if t.Speaker == dialog.SpeakerSystem {
				speaker = "System"
			}
			acts, err := json.Marshal(t.Lexical)
			if err != nil {
				return fmt.Errorf("encode acts: %w", err)
			}
			utt := strings.NewReplacer("\t", " ", "\n", " ").Replace(t.Utterance)
			fmt.Fprintf(bw, "%s\t%s\t%s\n", speaker, acts, utt)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func joinActs(lex []dialog.LexAct) string {
	parts := make([]string, 0, len(lex))
	for _, a := range lex {
		raw, err := json.Marshal(a.Parameters)
		if err != nil || len(a.Parameters) == 0 {
			parts = append(parts, string(a.Act))
			continue
		}
		parts = append(parts, string(a.Act)+string(raw))
	}
	return strings.Join(parts, " ")
}
