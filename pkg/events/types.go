package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event emitted during corpus generation.
type EventType string

const (
	CorpusStarted   EventType = "corpus.started"
	DialogGenerated EventType = "dialog.generated"
	DialogForced    EventType = "dialog.forced"
	CorpusCompleted EventType = "corpus.completed"
	CorpusFailed    EventType = "corpus.failed"
	HookResult      EventType = "hook.result"
	HookError       EventType = "hook.error"
	DomainReloaded  EventType = "domain.reloaded"
)

// Envelope is the standard event wrapper published to the event bus.
// RunID groups all events of one corpus run; Seq orders them within it.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	RunID     string            `json:"run_id"`
	Seq       uint64            `json:"seq,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// CorpusStartedData is the payload for corpus.started events.
type CorpusStartedData struct {
	Domain     string `json:"domain"`
	Complexity string `json:"complexity"`
	Size       int    `json:"size"`
	Seed       uint64 `json:"seed"`
}

// DialogGeneratedData is the payload for dialog.generated and dialog.forced
// events.
type DialogGeneratedData struct {
	Index   int  `json:"index"`
	Turns   int  `json:"turns"`
	Queries int  `json:"queries"`
	Forced  bool `json:"forced"`
}

// CorpusCompletedData is the payload for corpus.completed events.
type CorpusCompletedData struct {
	Dialogs  int     `json:"dialogs"`
	AvgTurns float64 `json:"avg_turns"`
	MaxTurns int     `json:"max_turns"`
	Forced   int     `json:"forced"`
	Output   string  `json:"output,omitempty"`
}

// CorpusFailedData is the payload for corpus.failed events.
type CorpusFailedData struct {
	Error string `json:"error"`
}

// HookResultData is the payload for hook.result events.
type HookResultData struct {
	HookURL    string `json:"hook_url"`
	StatusCode int    `json:"status_code"`
}

// HookErrorData is the payload for hook.error events.
type HookErrorData struct {
	HookURL string `json:"hook_url"`
	Error   string `json:"error"`
}

// DomainReloadedData is the payload for domain.reloaded events.
type DomainReloadedData struct {
	Domains []string `json:"domains"`
}
