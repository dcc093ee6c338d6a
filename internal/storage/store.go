package storage

import (
	"context"

	"tspevo/internal/model"
)

// Store persists solver runs and their per-generation history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveHistory(ctx context.Context, runID string, history []model.GenerationRecord) error
	GetHistory(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
}
