package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/dialog"
)

func TestNewRunSeed(t *testing.T) {
	const seed = uint64(1<<64 - 1)
	run := NewRun("run-1", "restaurant", "mix", 10, seed)
	if run.ID != "run-1" || run.Status != StatusRunning {
		t.Errorf("run = %+v", run)
	}
	got, err := run.SeedValue()
	if err != nil {
		t.Fatalf("SeedValue: %v", err)
	}
	if got != seed {
		t.Errorf("seed = %d, want %d", got, seed)
	}
}

func TestStatsJSONScan(t *testing.T) {
	want := StatsJSON{Dialogs: 3, AvgTurns: 7.5, MaxTurns: 11, Forced: 1}
	raw, err := want.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	for name, src := range map[string]any{"bytes": raw, "string": string(raw.([]byte))} {
		var got StatsJSON
		if err := got.Scan(src); err != nil {
			t.Fatalf("%s: Scan: %v", name, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", name, diff)
		}
	}

	var empty StatsJSON
	if err := empty.Scan(nil); err != nil || empty != (StatsJSON{}) {
		t.Errorf("Scan(nil) = %+v, %v", empty, err)
	}
}

func TestTurnsJSONNilValue(t *testing.T) {
	raw, err := TurnsJSON(nil).Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(raw.([]byte)) != "[]" {
		t.Errorf("Value() = %s, want []", raw)
	}
}

func TestRecords(t *testing.T) {
	d := dialog.NewDialog("food")
	if err := d.Append(dialog.Turn{Speaker: dialog.SpeakerSystem, Acts: []dialog.Act{dialog.Greet()}}); err != nil {
		t.Fatal(err)
	}
	d.Forced = true
	turns := [][]corpus.Turn{{{Speaker: dialog.SpeakerSystem, Utt: "Hi", Domain: "food"}}}

	records, err := Records("run-1", []*dialog.Dialog{d}, turns)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	r := records[0]
	if r.RunID != "run-1" || r.Position != 0 || r.Turns != 1 || !r.Forced {
		t.Errorf("record = %+v", r)
	}
	if len(r.Body) != 1 || r.Body[0].Utt != "Hi" {
		t.Errorf("body = %+v", r.Body)
	}

	if _, err := Records("run-1", []*dialog.Dialog{d}, nil); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
