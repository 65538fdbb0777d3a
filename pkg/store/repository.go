package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"

	"github.com/voicetyped/simdial/pkg/corpus"
)

// batchSize bounds the rows inserted per statement.
const batchSize = 100

// Repository provides persistence for corpus runs.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a new corpus repository.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db(ctx, false).AutoMigrate(&CorpusRun{}, &DialogRecord{})
}

// CreateRun persists a new run.
func (r *Repository) CreateRun(ctx context.Context, run *CorpusRun) error {
	return r.db(ctx, false).Create(run).Error
}

// GetRun returns a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*CorpusRun, error) {
	var run CorpusRun
	err := r.db(ctx, true).Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]CorpusRun, error) {
	var runs []CorpusRun
	q := r.db(ctx, true).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}

// CompleteRun stores the dialogs of a run and marks it completed in one
// transaction.
func (r *Repository) CompleteRun(ctx context.Context, run *CorpusRun, stats corpus.Stats, records []*DialogRecord) error {
	return r.db(ctx, false).Transaction(func(tx *gorm.DB) error {
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
				return err
			}
		}
		run.Status = StatusCompleted
		run.Stats = StatsJSON(stats)
		return tx.Save(run).Error
	})
}

// FailRun marks a run failed.
func (r *Repository) FailRun(ctx context.Context, run *CorpusRun, cause error) error {
	run.Status = StatusFailed
	run.Error = cause.Error()
	return r.db(ctx, false).Save(run).Error
}

// ListDialogs returns the dialogs of a run in generation order.
func (r *Repository) ListDialogs(ctx context.Context, runID string, limit, offset int) ([]DialogRecord, error) {
	var records []DialogRecord
	q := r.db(ctx, true).
		Where("run_id = ?", runID).
		Order("position ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&records).Error
	return records, err
}
