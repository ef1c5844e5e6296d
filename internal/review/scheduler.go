// Package review turns answer history into per-question mastery state and
// a due date for re-study.
package review

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rccm-prep/backend/internal/models"
)

const (
	// DefaultMasteryThreshold is the consecutive-correct streak after which
	// a question leaves the review rotation.
	DefaultMasteryThreshold = 5
	// MaxIntervalDays caps the doubling schedule.
	MaxIntervalDays = 90
)

// Store is the key-value-shaped persistence boundary for mastery records.
// Keys are (learnerID, QuestionRef.Key()); last write wins.
type Store interface {
	Get(ctx context.Context, learnerID int64, key string) (*models.MasteryRecord, error)
	Put(ctx context.Context, rec *models.MasteryRecord) error
	Delete(ctx context.Context, learnerID int64, key string) error
	// ListDue returns every non-mastered record with NextDueAt <= now,
	// in no particular order.
	ListDue(ctx context.Context, learnerID int64, now time.Time) ([]models.MasteryRecord, error)
	// Counts returns (tracked, mastered) totals for the learner.
	Counts(ctx context.Context, learnerID int64) (tracked, mastered int, err error)
}

// Scheduler applies the spaced-repetition update rule and answers due-set
// queries. Records for different questions are independent; the store
// serializes writes per key.
type Scheduler struct {
	store     Store
	threshold int
	now       func() time.Time
}

func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store, threshold: DefaultMasteryThreshold, now: time.Now}
}

// NewSchedulerWithClock fixes the threshold and clock, for tests.
func NewSchedulerWithClock(store Store, threshold int, now func() time.Time) *Scheduler {
	if threshold <= 0 {
		threshold = DefaultMasteryThreshold
	}
	return &Scheduler{store: store, threshold: threshold, now: now}
}

// RecordCompletion folds a finalized session's answer log into the
// learner's mastery records. Called synchronously when a session
// completes.
func (s *Scheduler) RecordCompletion(ctx context.Context, learnerID int64, answers []models.AnswerEntry) error {
	now := s.now()
	for _, entry := range answers {
		if err := s.recordAttempt(ctx, learnerID, entry, now); err != nil {
			return fmt.Errorf("record attempt for %s: %w", entry.Ref, err)
		}
	}
	return nil
}

func (s *Scheduler) recordAttempt(ctx context.Context, learnerID int64, entry models.AnswerEntry, now time.Time) error {
	rec, err := s.store.Get(ctx, learnerID, entry.Ref.Key())
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &models.MasteryRecord{LearnerID: learnerID, Ref: entry.Ref}
	}

	rec.AttemptCount++
	if entry.Correct {
		rec.CorrectCount++
		rec.CurrentStreak++
		if rec.IntervalDays == 0 {
			rec.IntervalDays = 1
		} else {
			rec.IntervalDays *= 2
			if rec.IntervalDays > MaxIntervalDays {
				rec.IntervalDays = MaxIntervalDays
			}
		}
		if rec.CurrentStreak >= s.threshold {
			rec.Mastered = true
		}
	} else {
		rec.CurrentStreak = 0
		rec.IntervalDays = 1
		rec.Mastered = false
	}
	rec.LastAttemptAt = now
	rec.NextDueAt = now.AddDate(0, 0, rec.IntervalDays)

	return s.store.Put(ctx, rec)
}

// DueSet returns the refs of every non-mastered question whose review time
// has arrived, most overdue first; ties go to the least-practiced
// (lowest interval) question.
func (s *Scheduler) DueSet(ctx context.Context, learnerID int64, now time.Time) ([]models.QuestionRef, error) {
	recs, err := s.store.ListDue(ctx, learnerID, now)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].NextDueAt.Equal(recs[j].NextDueAt) {
			return recs[i].NextDueAt.Before(recs[j].NextDueAt)
		}
		return recs[i].IntervalDays < recs[j].IntervalDays
	})

	refs := make([]models.QuestionRef, 0, len(recs))
	for _, rec := range recs {
		refs = append(refs, rec.Ref)
	}
	return refs, nil
}

// Reset clears one question back to unseen. Explicit learner action only.
func (s *Scheduler) Reset(ctx context.Context, learnerID int64, ref models.QuestionRef) error {
	if err := s.store.Delete(ctx, learnerID, ref.Key()); err != nil {
		return fmt.Errorf("reset %s: %w", ref, err)
	}
	return nil
}

// Summary aggregates the learner's review state.
func (s *Scheduler) Summary(ctx context.Context, learnerID int64) (*models.MasterySummary, error) {
	tracked, mastered, err := s.store.Counts(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("mastery counts: %w", err)
	}
	due, err := s.store.ListDue(ctx, learnerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	return &models.MasterySummary{
		TrackedCount:  tracked,
		MasteredCount: mastered,
		DueCount:      len(due),
	}, nil
}
