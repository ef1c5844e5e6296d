package review

import (
	"context"
	"sync"
	"time"

	"github.com/rccm-prep/backend/internal/models"
)

// MemoryStore keeps mastery records in-process. Suitable for single-node
// deployments and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[int64]map[string]models.MasteryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[int64]map[string]models.MasteryRecord)}
}

func (m *MemoryStore) Get(_ context.Context, learnerID int64, key string) (*models.MasteryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[learnerID][key]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (m *MemoryStore) Put(_ context.Context, rec *models.MasteryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.recs[rec.LearnerID]
	if !ok {
		byKey = make(map[string]models.MasteryRecord)
		m.recs[rec.LearnerID] = byKey
	}
	byKey[rec.Ref.Key()] = *rec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, learnerID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs[learnerID], key)
	return nil
}

func (m *MemoryStore) ListDue(_ context.Context, learnerID int64, now time.Time) ([]models.MasteryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []models.MasteryRecord
	for _, rec := range m.recs[learnerID] {
		if !rec.Mastered && !rec.NextDueAt.After(now) {
			due = append(due, rec)
		}
	}
	return due, nil
}

func (m *MemoryStore) Counts(_ context.Context, learnerID int64) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tracked := len(m.recs[learnerID])
	mastered := 0
	for _, rec := range m.recs[learnerID] {
		if rec.Mastered {
			mastered++
		}
	}
	return tracked, mastered, nil
}
