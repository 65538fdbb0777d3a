package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/pitabwire/frame/queue"
	"github.com/rs/xid"
)

// Metadata keys stamped on every envelope of an open run.
const (
	MetaDomain     = "domain"
	MetaComplexity = "complexity"
	MetaSeed       = "seed"
)

// RunInfo describes the corpus run an event belongs to.
type RunInfo struct {
	Domain     string
	Complexity string
	Seed       uint64
}

func (ri RunInfo) metadata() map[string]string {
	return map[string]string{
		MetaDomain:     ri.Domain,
		MetaComplexity: ri.Complexity,
		MetaSeed:       strconv.FormatUint(ri.Seed, 10),
	}
}

type openRun struct {
	meta map[string]string
	seq  uint64
}

type subscriber struct {
	ch    chan Envelope
	runID string // empty receives every run
}

// Publisher emits generation events to frame's queue manager and to local
// in-process subscribers. Without a queue manager only the local
// subscribers see events.
//
// Events of a run opened with BeginRun carry the run's metadata and a
// sequence number that increases by one per event within the run.
type Publisher struct {
	queueMgr queue.Manager
	source   string
	queueRef string

	mu          sync.RWMutex
	runs        map[string]*openRun
	subscribers map[string]*subscriber
}

// NewPublisher creates a publisher that emits events to the given queue reference.
func NewPublisher(queueMgr queue.Manager, source string, queueRef string) *Publisher {
	return &Publisher{
		queueMgr:    queueMgr,
		source:      source,
		queueRef:    queueRef,
		runs:        make(map[string]*openRun),
		subscribers: make(map[string]*subscriber),
	}
}

// BeginRun registers the metadata of a run. Safe on a nil Publisher.
func (p *Publisher) BeginRun(runID string, info RunInfo) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.runs[runID] = &openRun{meta: info.metadata()}
	p.mu.Unlock()
}

// EndRun forgets a run registered with BeginRun.
func (p *Publisher) EndRun(runID string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	delete(p.runs, runID)
	p.mu.Unlock()
}

// Emit publishes a typed event. A nil Publisher discards events.
func (p *Publisher) Emit(ctx context.Context, eventType EventType, runID string, data any) error {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	env := Envelope{
		ID:        xid.New().String(),
		Type:      eventType,
		Source:    p.source,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}

	p.mu.Lock()
	if run, ok := p.runs[runID]; ok {
		run.seq++
		env.Seq = run.seq
		env.Metadata = maps.Clone(run.meta)
	}
	p.mu.Unlock()

	p.fanOut(env)

	if p.queueMgr == nil {
		return nil
	}
	return p.queueMgr.Publish(ctx, p.queueRef, env)
}

func (p *Publisher) fanOut(env Envelope) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, sub := range p.subscribers {
		if sub.runID != "" && sub.runID != env.RunID {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			slog.Warn("event dropped: subscriber buffer full",
				slog.String("subscriber", id), slog.String("event_type", string(env.Type)),
				slog.String("run_id", env.RunID))
		}
	}
}

// Subscribe creates a local subscription receiving every event.
// The caller must call Unsubscribe with the same id to clean up.
func (p *Publisher) Subscribe(id string, bufSize int) <-chan Envelope {
	return p.SubscribeRun(id, "", bufSize)
}

// SubscribeRun creates a local subscription receiving only the events of
// runID. An empty runID receives every event.
func (p *Publisher) SubscribeRun(id, runID string, bufSize int) <-chan Envelope {
	if bufSize <= 0 {
		bufSize = 64
	}
	sub := &subscriber{ch: make(chan Envelope, bufSize), runID: runID}
	p.mu.Lock()
	p.subscribers[id] = sub
	p.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes a local subscription and closes its channel.
func (p *Publisher) Unsubscribe(id string) {
	p.mu.Lock()
	if sub, ok := p.subscribers[id]; ok {
		close(sub.ch)
		delete(p.subscribers, id)
	}
	p.mu.Unlock()
}
