package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/store"
)

type fakeBrowser struct {
	runs    []store.CorpusRun
	dialogs []store.DialogRecord

	gotLimit, gotOffset int
}

func (f *fakeBrowser) GetRun(_ context.Context, id string) (*store.CorpusRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeBrowser) ListRuns(_ context.Context, limit int) ([]store.CorpusRun, error) {
	f.gotLimit = limit
	return f.runs[:min(limit, len(f.runs))], nil
}

func (f *fakeBrowser) ListDialogs(_ context.Context, runID string, limit, offset int) ([]store.DialogRecord, error) {
	f.gotLimit, f.gotOffset = limit, offset
	var out []store.DialogRecord
	for _, d := range f.dialogs {
		if d.RunID == runID && d.Position >= offset && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func withBrowser(t *testing.T, b runBrowser) {
	t.Helper()
	prev := openRuns
	openRuns = func(ctx context.Context) (context.Context, runBrowser, func(), error) {
		return ctx, b, func() {}, nil
	}
	t.Cleanup(func() { openRuns = prev })
}

func fixtureRuns() *fakeBrowser {
	done := store.NewRun("run-a", "restaurant", "mix", 3, 7)
	done.Status = store.StatusCompleted
	done.Stats = store.StatsJSON(corpus.Stats{Dialogs: 3, AvgTurns: 9, MaxTurns: 11})
	failed := store.NewRun("run-b", "bus", "env", 5, 1)
	failed.Status = store.StatusFailed
	failed.Error = "context canceled"

	b := &fakeBrowser{runs: []store.CorpusRun{*done, *failed}}
	for i := range 3 {
		b.dialogs = append(b.dialogs, store.DialogRecord{RunID: "run-a", Position: i, Turns: 9 + i, Queries: 1})
	}
	return b
}

func TestRunsList(t *testing.T) {
	b := fixtureRuns()
	withBrowser(t, b)

	out := execute(t, "runs", "--limit", "5")
	if b.gotLimit != 5 {
		t.Errorf("limit = %d, want 5", b.gotLimit)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "run-a") || !strings.Contains(lines[0], "completed") ||
		!strings.Contains(lines[0], "size=3 seed=7") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "failed") || !strings.Contains(lines[1], "bus") {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestRunsShow(t *testing.T) {
	b := fixtureRuns()
	withBrowser(t, b)

	out := execute(t, "runs", "run-a", "--dialogs", "2", "--offset", "1")
	if b.gotLimit != 2 || b.gotOffset != 1 {
		t.Errorf("dialog page = limit %d offset %d", b.gotLimit, b.gotOffset)
	}
	for _, want := range []string{
		"run run-a: completed restaurant/mix size=3 seed=7",
		"stats: 3 dialogs, avg len 9.00, max len 11",
		"  dialog 1: turns=10 queries=1 forced=false",
		"  dialog 2: turns=11 queries=1 forced=false",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dialog 0:") {
		t.Errorf("offset ignored:\n%s", out)
	}

	out = execute(t, "runs", "run-b", "--offset", "0")
	if !strings.Contains(out, "error: context canceled") || strings.Contains(out, "stats:") {
		t.Errorf("failed run output:\n%s", out)
	}
}
