package storage

import (
	"context"
	"sort"
	"sync"

	"tspevo/internal/model"
)

type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]model.RunRecord
	history map[string][]model.GenerationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]model.GenerationRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.RunID] = copyRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return copyRun(run), true, nil
}

// ListRuns returns every saved run, newest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, copyRun(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, runID string, history []model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationRecord, len(history))
	copy(copied, history)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationRecord, len(history))
	copy(copied, history)
	return copied, true, nil
}

func copyRun(run model.RunRecord) model.RunRecord {
	run.BestTour = append([]int(nil), run.BestTour...)
	return run
}
