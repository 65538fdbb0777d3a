package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/voicetyped/simdial/pkg/complexity"
	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
	"github.com/voicetyped/simdial/pkg/events"
)

func restaurant(t *testing.T) *domain.Domain {
	t.Helper()
	d, err := domain.Resolve(nil, "restaurant")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return d
}

func noisy() *complexity.Profile {
	p := complexity.Default()
	p.Name = "noisy"
	p.Environment.Noise = 0.3
	p.Environment.WordNoise = 0.1
	p.Proposition.YNQuestion = 0.3
	p.Proposition.DontCare = 0.1
	p.Proposition.RejectInform = 0.5
	p.Proposition.MultiSlot = true
	p.Proposition.NewSearch = 0.3
	p.Proposition.MoreRequest = 0.3
	p.Proposition.MaxGoals = 2
	p.Interaction.SelfCorrect = 0.2
	p.Interaction.Hesitation = 0.3
	p.Interaction.Confirmation.Mode = complexity.ConfirmMixed
	p.Interaction.Confirmation.Selection = complexity.SelectPerTurn
	p.Social.ChitChat = 0.2
	return &p
}

func clean() *complexity.Profile {
	p := complexity.Default()
	return &p
}

func newGenerator(t *testing.T, p *complexity.Profile, opts ...Option) *Generator {
	t.Helper()
	g, err := New(restaurant(t), p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestDialogInvariants(t *testing.T) {
	p := noisy()
	g := newGenerator(t, p)

	dialogs, err := g.Corpus(t.Context(), 40, 7)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	for i, d := range dialogs {
		if d == nil {
			t.Fatalf("dialog %d missing", i)
		}
		if d.Len() > p.Interaction.MaxTurns {
			t.Errorf("dialog %d: %d turns, ceiling %d", i, d.Len(), p.Interaction.MaxTurns)
		}
		first := d.Turns[0]
		if first.Speaker != dialog.SpeakerSystem || first.Acts[0].Kind != dialog.SysGreet {
			t.Errorf("dialog %d does not open with a system greeting", i)
		}
		last := d.Turns[d.Len()-1]
		if last.Speaker != dialog.SpeakerSystem || !dialog.HasKind(last.Acts, dialog.SysGoodbye) {
			t.Errorf("dialog %d does not end with a system goodbye", i)
		}
		if !d.Closed() {
			t.Errorf("dialog %d not closed", i)
		}
		for j, turn := range d.Turns {
			want := dialog.SpeakerSystem
			if j%2 == 1 {
				want = dialog.SpeakerUser
			}
			if turn.Speaker != want {
				t.Errorf("dialog %d turn %d: speaker %s, want %s", i, j, turn.Speaker, want)
			}
			if turn.Conf < 0 || turn.Conf > 1 {
				t.Errorf("dialog %d turn %d: conf %v out of range", i, j, turn.Conf)
			}
			if len(turn.Lexical) != len(turn.Acts) {
				t.Errorf("dialog %d turn %d: %d lexical acts for %d acts", i, j, len(turn.Lexical), len(turn.Acts))
			}
			if turn.Speaker == dialog.SpeakerSystem && turn.State == nil {
				t.Errorf("dialog %d turn %d: system turn without state", i, j)
			}
		}
	}
}

func TestCorpusReproducible(t *testing.T) {
	ctx := t.Context()
	serial, err := newGenerator(t, noisy(), WithWorkers(1)).Corpus(ctx, 25, 42)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	parallel, err := newGenerator(t, noisy(), WithWorkers(8)).Corpus(ctx, 25, 42)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	if diff := cmp.Diff(serial, parallel, cmp.AllowUnexported(dialog.Dialog{})); diff != "" {
		t.Errorf("corpus depends on scheduling (-serial +parallel):\n%s", diff)
	}

	other, err := newGenerator(t, noisy()).Corpus(ctx, 25, 43)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	if cmp.Equal(serial, other, cmp.AllowUnexported(dialog.Dialog{})) {
		t.Error("different seeds produced the same corpus")
	}
}

func TestCorpusSerializesIdentically(t *testing.T) {
	serialize := func(workers int) []byte {
		t.Helper()
		g := newGenerator(t, noisy(), WithWorkers(workers))
		dialogs, err := g.Corpus(t.Context(), 60, 2024)
		if err != nil {
			t.Fatalf("Corpus: %v", err)
		}
		var buf bytes.Buffer
		if err := corpus.New(g.Domain().Spec(), dialogs).WriteJSON(&buf); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		return buf.Bytes()
	}

	first, second := serialize(1), serialize(6)
	if len(first) == 0 {
		t.Fatal("empty corpus output")
	}
	if !bytes.Equal(first, second) {
		t.Errorf("same seed serialized differently: %d vs %d bytes", len(first), len(second))
	}
}

// foodPrice has a single user slot and a single system slot, so every
// corrupted user act is either misheard or lost.
func foodPrice(t *testing.T) *domain.Domain {
	t.Helper()
	tmpl := domain.Templates{Inform: []string{"{{.Value}}."}, Request: []string{"Which one?"}}
	d, err := domain.New(domain.Spec{
		Name:     "food",
		Greet:    "Hello.",
		DBSize:   30,
		UsrSlots: []domain.SlotSpec{{Name: "food_pref", Vocabulary: []string{"Thai", "Chinese", "Korean"}, Templates: tmpl}},
		SysSlots: []domain.SlotSpec{{Name: "price", Vocabulary: []string{"cheap", "moderate", "expensive"}, Templates: tmpl}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestFullNoiseClarifiesBeforeQuery(t *testing.T) {
	p := complexity.Default()
	p.Environment.Noise = 1.0
	g, err := New(foodPrice(t), &p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dialogs, err := g.Corpus(t.Context(), 200, 11)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	for i, d := range dialogs {
		repaired := false
		for _, turn := range d.Turns {
			if turn.Speaker != dialog.SpeakerSystem {
				continue
			}
			if dialog.HasKind(turn.Acts, dialog.SysQuery) {
				break
			}
			if dialog.HasKind(turn.Acts, dialog.SysAskRepeat) || dialog.HasKind(turn.Acts, dialog.SysExplicitConfirm) {
				repaired = true
				break
			}
		}
		if !repaired {
			t.Errorf("dialog %d: no ASK_REPEAT or EXPLICIT_CONFIRM before the query", i)
		}
		for j, turn := range d.Turns {
			if turn.Speaker == dialog.SpeakerUser && dialog.HasKind(turn.TrueActs, dialog.UsrInform) && turn.Conf == 1 {
				t.Errorf("dialog %d turn %d: corrupted inform reported full confidence", i, j)
			}
		}
	}
}

func TestZeroNoiseIsExact(t *testing.T) {
	dialogs, err := newGenerator(t, clean()).Corpus(t.Context(), 20, 1)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	for i, d := range dialogs {
		if d.Forced {
			t.Errorf("dialog %d hit the turn ceiling without noise", i)
		}
		if d.Queries() != 1 {
			t.Errorf("dialog %d: %d queries, want 1", i, d.Queries())
		}
		for j, turn := range d.Turns {
			if turn.Speaker != dialog.SpeakerUser {
				continue
			}
			if turn.Conf != 1 {
				t.Errorf("dialog %d turn %d: conf %v, want 1", i, j, turn.Conf)
			}
			if dialog.HasKind(turn.Acts, dialog.UsrChat) {
				t.Errorf("dialog %d turn %d: unexpected chat", i, j)
			}
			if diff := cmp.Diff(turn.TrueActs, turn.Acts); diff != "" {
				t.Errorf("dialog %d turn %d: channel altered acts:\n%s", i, j, diff)
			}
		}
	}
}

func TestTurnCeiling(t *testing.T) {
	p := noisy()
	p.Interaction.MaxTurns = 4
	dialogs, err := newGenerator(t, p).Corpus(t.Context(), 5, 3)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	for i, d := range dialogs {
		if !d.Forced {
			t.Errorf("dialog %d not marked forced", i)
		}
		if d.Len() != 3 {
			t.Errorf("dialog %d: %d turns, want 3", i, d.Len())
		}
		if got := dialog.Kinds(d.Turns[2].Acts); !cmp.Equal(got, []dialog.ActKind{dialog.SysGoodbye}) {
			t.Errorf("dialog %d: closing turn %v", i, got)
		}
	}
}

func TestCorpusEvents(t *testing.T) {
	pub := events.NewPublisher(nil, "test", "")
	ch := pub.Subscribe("test", 64)
	defer pub.Unsubscribe("test")

	g := newGenerator(t, clean(), WithPublisher(pub, "run-1"))
	if _, err := g.Corpus(t.Context(), 6, 9); err != nil {
		t.Fatalf("Corpus: %v", err)
	}

	seen := make(map[int]bool)
	for range 6 {
		env := <-ch
		if env.Type != events.DialogGenerated {
			t.Errorf("event type %s, want %s", env.Type, events.DialogGenerated)
		}
		if env.RunID != "run-1" {
			t.Errorf("run id %q", env.RunID)
		}
		var data events.DialogGeneratedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		seen[data.Index] = true
	}
	if len(seen) != 6 {
		t.Errorf("events for %d distinct dialogs, want 6", len(seen))
	}
}

func TestCorpusErrors(t *testing.T) {
	g := newGenerator(t, clean())

	if _, err := g.Corpus(t.Context(), 0, 1); err == nil {
		t.Error("expected error for empty corpus")
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := g.Corpus(ctx, 10, 1); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNewRejectsInvalidProfile(t *testing.T) {
	p := clean()
	p.Environment.Noise = 2
	if _, err := New(restaurant(t), p); err == nil {
		t.Error("expected profile validation error")
	}
}
