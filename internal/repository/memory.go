package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/shenikar/fire_risk_grid/internal/models"
	"github.com/shenikar/fire_risk_grid/internal/service"
)

// MemorySnapshotStore хранит снимок в памяти процесса.
// Используется для пробных запусков без базы данных.
type MemorySnapshotStore struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

var _ service.SnapshotRepository = (*MemorySnapshotStore)(nil)

func (m *MemorySnapshotStore) Replace(ctx context.Context, snapshot *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := &models.Snapshot{
		ID:          snapshot.ID,
		GeneratedAt: snapshot.GeneratedAt,
		Estimates:   slices.Clone(snapshot.Estimates),
	}

	m.mu.Lock()
	m.snapshot = next
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshotStore) Latest(_ context.Context, minProbability float64) (*models.Snapshot, error) {
	m.mu.RLock()
	current := m.snapshot
	m.mu.RUnlock()

	if current == nil {
		return nil, service.ErrSnapshotNotFound
	}
	return &models.Snapshot{
		ID:          current.ID,
		GeneratedAt: current.GeneratedAt,
		Estimates:   current.Above(minProbability),
	}, nil
}
