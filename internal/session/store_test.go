package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rccm-prep/backend/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	state := &models.SessionState{
		ID:         "s1",
		LearnerID:  1,
		SubjectTag: "道路",
		Questions:  []models.QuestionRef{{SubjectTag: "道路", Year: 2019, ID: 1}},
		Status:     models.SessionInProgress,
		StartedAt:  time.Now(),
	}
	if err := store.Put(ctx, state); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "s1" || got.SubjectTag != "道路" || len(got.Questions) != 1 {
		t.Errorf("got %+v", got)
	}

	// The store hands out copies: mutating a read must not leak back.
	got.CurrentIndex = 99
	got.Questions[0].ID = 42
	fresh, _ := store.Get(ctx, "s1")
	if fresh.CurrentIndex != 0 || fresh.Questions[0].ID != 1 {
		t.Error("mutation of a returned state leaked into the store")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	var notFound *SessionNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Get(missing) = %v, want SessionNotFoundError", err)
	}
	if notFound != nil && notFound.SessionID != "missing" {
		t.Errorf("error names %q, want missing", notFound.SessionID)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, &models.SessionState{ID: "s1"})
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "s1"); err == nil {
		t.Error("session survived delete")
	}
}
