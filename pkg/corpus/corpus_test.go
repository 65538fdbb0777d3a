package corpus

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
)

func sample(t *testing.T) []*dialog.Dialog {
	t.Helper()
	d := dialog.NewDialog("food")
	turns := []dialog.Turn{
		{
			Speaker: dialog.SpeakerSystem, Utterance: "Hello. Which food?",
			Acts:    []dialog.Act{dialog.Greet(), dialog.Request("food_pref")},
			Lexical: []dialog.LexAct{{Act: dialog.SysGreet, Parameters: []any{}}, {Act: dialog.SysRequest, Parameters: []any{"food_pref"}}},
			State:   map[string]string{"phase": "collecting"},
			Conf:    1,
		},
		{
			Speaker: dialog.SpeakerUser, Utterance: "Crêpes please.",
			Acts:    []dialog.Act{dialog.Inform("food_pref", 0)},
			Lexical: []dialog.LexAct{{Act: dialog.UsrInform, Parameters: []any{"food_pref", "Crêpes"}}},
			Conf:    0.75,
		},
		{
			Speaker: dialog.SpeakerSystem, Utterance: `{"QUERY":{"food_pref":"Crêpes"},"GOALS":[]}`,
			Acts:    []dialog.Act{dialog.QueryAct(dialog.Query{Constraints: []dialog.Constraint{{Slot: "food_pref", Value: 0}}})},
			Lexical: []dialog.LexAct{{Act: dialog.SysQuery, Parameters: []any{map[string]string{"food_pref": "Crêpes"}, []string{}}}},
			State:   map[string]string{"phase": "informing"},
			Conf:    1,
		},
		{
			Speaker: dialog.SpeakerUser, Utterance: "",
			Acts:    []dialog.Act{dialog.Goodbye()},
			Lexical: []dialog.LexAct{{Act: dialog.UsrGoodbye, Parameters: []any{}}},
			Conf:    1,
		},
		{
			Speaker: dialog.SpeakerSystem, Utterance: "Bye.",
			Acts:    []dialog.Act{dialog.Goodbye()},
			Lexical: []dialog.LexAct{{Act: dialog.SysGoodbye, Parameters: []any{}}},
			State:   map[string]string{"phase": "closing"},
			Conf:    1,
		},
	}
	for _, turn := range turns {
		if err := d.Append(turn); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	short := dialog.NewDialog("food")
	for _, turn := range []dialog.Turn{turns[0], turns[3], turns[4]} {
		if err := short.Append(turn); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	short.Forced = true
	return []*dialog.Dialog{d, short}
}

func TestWriteJSONShape(t *testing.T) {
	c := New(domain.Spec{Name: "food", Greet: "Hello.", DBSize: 10}, sample(t))
	var buf bytes.Buffer
	if err := c.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Crêpes") {
		t.Error("non-ASCII text was escaped")
	}
	sys := `"speaker": "SYS",
        "utt": "Hello. Which food?",
        "actions": [`
	if !strings.Contains(out, sys) {
		t.Errorf("system turn field order wrong:\n%s", out)
	}
	if !strings.Contains(out, `"conf": 0.75,
        "domain": "food"`) {
		t.Errorf("user turn must carry conf before domain:\n%s", out)
	}

	var decoded struct {
		Dialogs [][]map[string]json.RawMessage `json:"dialogs"`
		Meta    domain.Spec                    `json:"meta"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Meta.Name != "food" || decoded.Meta.DBSize != 10 {
		t.Errorf("meta = %+v", decoded.Meta)
	}
	first := decoded.Dialogs[0]
	if _, ok := first[0]["conf"]; ok {
		t.Error("system turn carries conf")
	}
	if _, ok := first[0]["state"]; !ok {
		t.Error("system turn missing state")
	}
	if _, ok := first[1]["state"]; ok {
		t.Error("user turn carries state")
	}
	if _, ok := first[3]["conf"]; !ok {
		t.Error("user turn with conf 1 lost its conf")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sample(t)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"## DIALOG 0 ##",
		"SYS -> Hello. Which food?",
		"USR(0.750000)-> Crêpes please.",
		`SYS -> {"QUERY":{"food_pref":"Crêpes"},"GOALS":[]}`,
		"USR(1.000000)-> goodbye",
		"SYS -> Bye.",
		"## DIALOG 1 ##",
		"SYS -> Hello. Which food?",
		"USR(1.000000)-> goodbye",
		"SYS -> Bye.",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, sample(t)[:1]); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	want := []string{
		"System\t" + `[{"act":"greet","parameters":[]},{"act":"request","parameters":["food_pref"]}]` + "\tHello. Which food?",
		"User\t" + `[{"act":"inform","parameters":["food_pref","Crêpes"]}]` + "\tCrêpes please.",
		"User\t" + `[{"act":"goodbye","parameters":[]}]` + "\t",
		"System\t" + `[{"act":"goodbye","parameters":[]}]` + "\tBye.",
		"",
		"",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("tsv mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute(t *testing.T) {
	got := Compute(sample(t))
	want := Stats{
		Dialogs:        2,
		AvgTurns:       4,
		MaxTurns:       5,
		QueryFraction:  1.0 / 8,
		MeanQueryRatio: (1.0 / 5) / 2,
		Forced:         1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if empty := Compute(nil); empty != (Stats{}) {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	name := FileName("food", "clean", 2, "json")
	if name != "food-clean-2.json" {
		t.Fatalf("FileName = %q", name)
	}
	c := New(domain.Spec{Name: "food"}, sample(t))
	path, err := WriteFile(dir, name, c.WriteJSON)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var back Corpus
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back.Dialogs) != 2 || len(back.Dialogs[0]) != 5 {
		t.Errorf("read back %d dialogs", len(back.Dialogs))
	}
}
