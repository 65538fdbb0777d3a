package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/pitabwire/util"
	"golang.org/x/sync/errgroup"

	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/events"
)

// Source returns the random source of dialog i in a corpus seeded with seed.
// Dialogs draw from independent streams, so the corpus does not depend on
// the order in which workers pick dialogs up.
func Source(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}

// Corpus generates size dialogs. The result is in generation order.
func (g *Generator) Corpus(ctx context.Context, size int, seed uint64) ([]*dialog.Dialog, error) {
	if size <= 0 {
		return nil, fmt.Errorf("corpus size must be positive, got %d", size)
	}
	dialogs := make([]*dialog.Dialog, size)
	run := func(ctx context.Context, i int) error {
		d, err := g.Dialog(ctx, i, Source(seed, i))
		if err != nil {
			return err
		}
		dialogs[i] = d
		g.emitDialog(ctx, i, d)
		return nil
	}

	var err error
	if g.pool != nil {
		err = g.onPool(ctx, size, run)
	} else {
		err = g.onGroup(ctx, size, run)
	}
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "corpus generated",
		slog.String("domain", g.dom.Name()),
		slog.String("complexity", g.prof.Name),
		slog.Int("dialogs", size))
	return dialogs, nil
}

func (g *Generator) onGroup(ctx context.Context, size int, run func(context.Context, int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := range size {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error { return run(egCtx, i) })
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (g *Generator) onPool(ctx context.Context, size int, run func(context.Context, int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := range size {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := run(ctx, i); err != nil {
				fail(err)
			}
		}
		if err := g.pool.Submit(ctx, task); err != nil {
			wg.Done()
			fail(fmt.Errorf("submit dialog %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (g *Generator) emitDialog(ctx context.Context, i int, d *dialog.Dialog) {
	if g.pub == nil {
		return
	}
	eventType := events.DialogGenerated
	if d.Forced {
		eventType = events.DialogForced
	}
	err := g.pub.Emit(ctx, eventType, g.runID, &events.DialogGeneratedData{
		Index:   i,
		Turns:   d.Len(),
		Queries: d.Queries(),
		Forced:  d.Forced,
	})
	if err != nil {
		util.Log(ctx).WithError(err).Error("generator: publish dialog event")
	}
}
