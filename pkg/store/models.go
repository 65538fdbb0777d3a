// Package store persists corpus runs and their dialogs through frame's
// datastore pool.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pitabwire/frame/data"

	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/dialog"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CorpusRun records one generation run. Its ID is the run ID carried by
// events and hook notifications.
type CorpusRun struct {
	data.BaseModel

	Domain     string    `gorm:"type:varchar(255);not null;index:idx_cr_domain" json:"domain"`
	Complexity string    `gorm:"type:varchar(255);not null"                     json:"complexity"`
	Size       int       `gorm:"not null"                                       json:"size"`
	Seed       string    `gorm:"type:varchar(20);not null"                      json:"seed"`
	Status     string    `gorm:"type:varchar(20);not null;index:idx_cr_status"  json:"status"`
	Stats      StatsJSON `gorm:"type:jsonb;default:'{}'"                        json:"stats"`
	Output     string    `gorm:"type:text"                                      json:"output,omitempty"`
	Error      string    `gorm:"type:text"                                      json:"error,omitempty"`
}

func (CorpusRun) TableName() string { return "corpus_runs" }

// NewRun creates a running CorpusRun with the given ID.
func NewRun(id, domainName, complexity string, size int, seed uint64) *CorpusRun {
	r := &CorpusRun{
		Domain:     domainName,
		Complexity: complexity,
		Size:       size,
		Seed:       strconv.FormatUint(seed, 10),
		Status:     StatusRunning,
	}
	r.ID = id
	return r
}

// SeedValue parses the stored seed.
func (r *CorpusRun) SeedValue() (uint64, error) {
	return strconv.ParseUint(r.Seed, 10, 64)
}

// DialogRecord stores one serialized dialog of a run.
type DialogRecord struct {
	data.BaseModel

	RunID    string    `gorm:"type:varchar(50);not null;index:idx_dr_run" json:"run_id"`
	Position int       `gorm:"not null"                                   json:"index"`
	Turns    int       `gorm:"not null"                                   json:"turns"`
	Queries  int       `gorm:"default:0"                                  json:"queries"`
	Forced   bool      `gorm:"default:false"                              json:"forced"`
	Body     TurnsJSON `gorm:"type:jsonb;not null"                        json:"body"`
}

func (DialogRecord) TableName() string { return "dialog_records" }

// Records converts the dialogs of a run into rows. turns must be the
// serialized form of dialogs, index for index.
func Records(runID string, dialogs []*dialog.Dialog, turns [][]corpus.Turn) ([]*DialogRecord, error) {
	if len(dialogs) != len(turns) {
		return nil, fmt.Errorf("records: %d dialogs but %d serialized dialogs", len(dialogs), len(turns))
	}
	out := make([]*DialogRecord, 0, len(dialogs))
	for i, d := range dialogs {
		out = append(out, &DialogRecord{
			RunID:    runID,
			Position: i,
			Turns:    d.Len(),
			Queries:  d.Queries(),
			Forced:   d.Forced,
			Body:     TurnsJSON(turns[i]),
		})
	}
	return out, nil
}

// StatsJSON is a custom GORM type for JSONB storage of corpus statistics.
type StatsJSON corpus.Stats

func (s StatsJSON) Value() (interface{}, error) {
	return json.Marshal(s)
}

func (s *StatsJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		*s = StatsJSON{}
		return nil
	}
}

// TurnsJSON is a custom GORM type for JSONB storage of serialized turns.
type TurnsJSON []corpus.Turn

func (t TurnsJSON) Value() (interface{}, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *TurnsJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		*t = TurnsJSON{}
		return nil
	}
}
