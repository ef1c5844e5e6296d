package session

import (
	"context"
	"sync"

	"github.com/rccm-prep/backend/internal/models"
)

// Store is the key-value-shaped persistence boundary for session state,
// keyed by session id, last write wins. Implementations return
// SessionNotFoundError for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*models.SessionState, error)
	Put(ctx context.Context, state *models.SessionState) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps session state in-process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.SessionState)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, &SessionNotFoundError{SessionID: id}
	}
	out := state
	out.Questions = append([]models.QuestionRef(nil), state.Questions...)
	out.Answers = append([]models.AnswerEntry(nil), state.Answers...)
	return &out, nil
}

func (m *MemoryStore) Put(_ context.Context, state *models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *state
	stored.Questions = append([]models.QuestionRef(nil), state.Questions...)
	stored.Answers = append([]models.AnswerEntry(nil), state.Answers...)
	m.sessions[state.ID] = stored
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
