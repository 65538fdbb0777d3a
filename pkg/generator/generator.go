// Package generator runs the turn loop between the simulated system and
// user over the noisy channel and fans dialog generation out over workers.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/pitabwire/frame/workerpool"

	"github.com/voicetyped/simdial/pkg/agent"
	"github.com/voicetyped/simdial/pkg/channel"
	"github.com/voicetyped/simdial/pkg/complexity"
	"github.com/voicetyped/simdial/pkg/dialog"
	"github.com/voicetyped/simdial/pkg/domain"
	"github.com/voicetyped/simdial/pkg/events"
	"github.com/voicetyped/simdial/pkg/nlg"
)

// Generator produces dialogs for one domain under one complexity profile.
// It holds only read-only state, so dialogs can be generated concurrently.
type Generator struct {
	dom      *domain.Domain
	prof     *complexity.Profile
	renderer *nlg.Renderer
	action   *channel.ActionChannel
	word     *channel.WordChannel

	pool    workerpool.WorkerPool
	workers int
	pub     *events.Publisher
	runID   string
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkerPool runs corpus generation on a frame worker pool.
func WithWorkerPool(pool workerpool.WorkerPool) Option {
	return func(g *Generator) { g.pool = pool }
}

// WithWorkers bounds the number of dialogs generated at once when no worker
// pool is configured.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithPublisher emits per-dialog events tagged with runID.
func WithPublisher(pub *events.Publisher, runID string) Option {
	return func(g *Generator) {
		g.pub = pub
		g.runID = runID
	}
}

// New builds a generator. Template and profile errors surface here so that a
// run fails before any dialog is produced.
func New(d *domain.Domain, p *complexity.Profile, opts ...Option) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r, err := nlg.NewRenderer(d)
	if err != nil {
		return nil, fmt.Errorf("domain %q: %w", d.Name(), err)
	}
	g := &Generator{
		dom:      d,
		prof:     p,
		renderer: r,
		action:   channel.NewActionChannel(d, p),
		word:     channel.NewWordChannel(p),
		workers:  4,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Domain returns the domain dialogs are generated for.
func (g *Generator) Domain() *domain.Domain { return g.dom }

// Profile returns the complexity profile.
func (g *Generator) Profile() *complexity.Profile { return g.prof }

// Dialog generates one dialog. All random draws come from rng, so the same
// rng state always yields the same dialog.
func (g *Generator) Dialog(ctx context.Context, index int, rng *rand.Rand) (*dialog.Dialog, error) {
	usr, err := agent.NewUser(g.dom, g.prof, rng)
	if err != nil {
		return nil, err
	}
	sys, err := agent.NewSystem(g.dom, g.prof, rng)
	if err != nil {
		return nil, err
	}

	d := dialog.NewDialog(g.dom.Name())
	var observed []dialog.Act
	conf := 1.0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var acts []dialog.Act
		var done bool
		// A regular system turn needs room for the user reply and a
		// closing turn after it.
		if d.Len()+3 > g.prof.Interaction.MaxTurns {
			acts, err = sys.Close()
			done = true
			d.Forced = true
			slog.WarnContext(ctx, "turn ceiling reached, closing dialog",
				slog.Int("dialog_index", index),
				slog.Int("max_turns", g.prof.Interaction.MaxTurns))
		} else {
			acts, done, err = sys.Step(observed, conf)
		}
		if err != nil {
			return nil, fmt.Errorf("dialog %d turn %d: %w", index, d.Len(), err)
		}

		utt, lex, err := g.renderer.System(acts, rng)
		if err != nil {
			return nil, fmt.Errorf("dialog %d turn %d: %w", index, d.Len(), err)
		}
		if err := d.Append(dialog.Turn{
			Speaker:   dialog.SpeakerSystem,
			Utterance: utt,
			Acts:      acts,
			Lexical:   lex,
			State:     sys.Snapshot(),
			Conf:      1,
		}); err != nil {
			return nil, err
		}
		if done {
			break
		}

		trueActs := usr.Step(acts)
		observed, conf = g.action.Transmit(trueActs, rng)
		utt, lex, err = g.renderer.User(observed, rng)
		if err != nil {
			return nil, fmt.Errorf("dialog %d turn %d: %w", index, d.Len(), err)
		}
		if err := d.Append(dialog.Turn{
			Speaker:   dialog.SpeakerUser,
			Utterance: g.word.Transmit(utt, rng),
			Acts:      observed,
			TrueActs:  trueActs,
			Lexical:   lex,
			Conf:      conf,
		}); err != nil {
			return nil, err
		}
	}

	slog.DebugContext(ctx, "dialog generated",
		slog.Int("dialog_index", index),
		slog.Int("turns", d.Len()),
		slog.Bool("forced", d.Forced))
	return d, nil
}
