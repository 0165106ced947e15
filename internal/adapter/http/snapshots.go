package http

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

// SnapshotStore keeps the most recent snapshot of each stage, pre-encoded,
// for the /alerts endpoint. It implements pipeline.Publisher.
type SnapshotStore struct {
	mu      sync.RWMutex
	byStage map[domain.Stage]snapshotEntry
}

type snapshotEntry struct {
	runID string
	stage domain.Stage
	count int
	body  []byte
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{byStage: make(map[domain.Stage]snapshotEntry)}
}

// Publish encodes snap and replaces the stored snapshot for its stage.
func (s *SnapshotStore) Publish(_ context.Context, snap domain.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", snap.Stage, err)
	}
	s.mu.Lock()
	s.byStage[snap.Stage] = snapshotEntry{
		runID: snap.RunID,
		stage: snap.Stage,
		count: len(snap.Alerts),
		body:  body,
	}
	s.mu.Unlock()
	return nil
}

// Count returns the number of features in the latest snapshot of a stage.
func (s *SnapshotStore) Count(stage domain.Stage) int {
	e, _ := s.latest(stage)
	return e.count
}

func (s *SnapshotStore) latest(stage domain.Stage) (snapshotEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byStage[stage]
	return e, ok
}
