// Package session owns the per-learner assessment state machine:
// InProgress → Completed over a fixed question order, with exactly-once
// scoring per question.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rccm-prep/backend/internal/bank"
	"github.com/rccm-prep/backend/internal/models"
	"github.com/rccm-prep/backend/internal/review"
	"github.com/rccm-prep/backend/internal/selection"
)

// Archiver receives completed sessions for long-term storage. Archiving is
// best-effort; a failure is logged, not surfaced to the learner.
type Archiver interface {
	Archive(ctx context.Context, state *models.SessionState) error
}

// Engine is the sole owner and mutator of session state. Reads are
// lock-free; mutations of one session are serialized by a per-session
// mutex so duplicate submissions cannot race the sequence check.
type Engine struct {
	store     Store
	selector  *selection.Engine
	repo      *bank.Repository
	scheduler *review.Scheduler
	archiver  Archiver

	locks sync.Map // session id → *sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewEngine(store Store, selector *selection.Engine, repo *bank.Repository, scheduler *review.Scheduler) *Engine {
	return &Engine{
		store:     store,
		selector:  selector,
		repo:      repo,
		scheduler: scheduler,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// SetArchiver installs an optional completed-session archive sink.
func (e *Engine) SetArchiver(a Archiver) { e.archiver = a }

func (e *Engine) lockFor(id string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Start selects the question order and creates an in-progress session.
func (e *Engine) Start(ctx context.Context, learnerID int64, req models.StartSessionRequest) (*models.SessionState, bool, error) {
	result, err := e.selector.Select(models.SelectionRequest{
		Subject: req.Subject,
		Years:   req.Years,
		Count:   req.Count,
	})
	if err != nil {
		return nil, false, err
	}
	state, err := e.create(ctx, learnerID, result, false)
	return state, result.Insufficient, err
}

// StartReview creates a session over the learner's due set for one
// subject instead of the year axis.
func (e *Engine) StartReview(ctx context.Context, learnerID int64, req models.StartReviewRequest) (*models.SessionState, bool, error) {
	due, err := e.scheduler.DueSet(ctx, learnerID, e.now())
	if err != nil {
		return nil, false, fmt.Errorf("due set: %w", err)
	}
	result, err := e.selector.SelectFromRefs(req.Subject, due, req.Count)
	if err != nil {
		return nil, false, err
	}
	state, err := e.create(ctx, learnerID, result, true)
	return state, result.Insufficient, err
}

func (e *Engine) create(ctx context.Context, learnerID int64, result *models.SelectionResult, isReview bool) (*models.SessionState, error) {
	if len(result.Refs) == 0 {
		return nil, fmt.Errorf("no questions available for %q", result.SubjectTag)
	}
	state := &models.SessionState{
		ID:         e.newID(),
		LearnerID:  learnerID,
		SubjectTag: result.SubjectTag,
		Review:     isReview,
		Questions:  result.Refs,
		Status:     models.SessionInProgress,
		StartedAt:  e.now(),
	}
	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return state, nil
}

// CurrentQuestion returns the question at the current index, answer
// withheld. Side-effect-free; safe to call repeatedly (page refresh).
func (e *Engine) CurrentQuestion(ctx context.Context, sessionID string) (*models.ServedQuestion, error) {
	state, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Status != models.SessionInProgress {
		return nil, &SessionClosedError{SessionID: sessionID}
	}

	ref := state.Questions[state.CurrentIndex]
	q, ok := e.repo.ByRef(ref)
	if !ok {
		return nil, fmt.Errorf("session %s references %s which is not in the bank", sessionID, ref)
	}
	return &models.ServedQuestion{
		Ref:     ref,
		Number:  state.CurrentIndex + 1,
		Total:   len(state.Questions),
		Prompt:  q.Prompt,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}, nil
}

// SubmitAnswer scores the current question. The submitted ref must match
// the question at the current index. Repeating a submission for the same
// question returns the original outcome without double-counting.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID string, req models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error) {
	mu := e.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Status != models.SessionInProgress {
		return nil, &SessionClosedError{SessionID: sessionID}
	}

	expected := state.Questions[state.CurrentIndex]
	if req.Ref != expected {
		return nil, &OutOfSequenceError{SessionID: sessionID, Submitted: req.Ref, Expected: expected}
	}

	q, ok := e.repo.ByRef(expected)
	if !ok {
		return nil, fmt.Errorf("session %s references %s which is not in the bank", sessionID, expected)
	}

	// Duplicate submission (double-click, resent form): the question was
	// already scored at this index, so replay the recorded outcome.
	if len(state.Answers) > 0 {
		last := state.Answers[len(state.Answers)-1]
		if last.Ref == expected {
			return &models.SubmitAnswerResponse{
				Correct:     last.Correct,
				Chosen:      last.Chosen,
				Answer:      q.Correct,
				Explanation: q.Explanation,
				Repeated:    true,
			}, nil
		}
	}

	chosen, ok := models.NormalizeOption(req.Chosen)
	if !ok {
		return nil, fmt.Errorf("invalid answer option %q", req.Chosen)
	}

	entry := models.AnswerEntry{
		Ref:        expected,
		Chosen:     chosen,
		Correct:    chosen == q.Correct,
		ElapsedMs:  req.ElapsedMs,
		AnsweredAt: e.now(),
	}
	state.Answers = append(state.Answers, entry)

	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &models.SubmitAnswerResponse{
		Correct:     entry.Correct,
		Chosen:      chosen,
		Answer:      q.Correct,
		Explanation: q.Explanation,
	}, nil
}

// Advance moves to the next question. Advancing past the last question
// completes the session and synchronously folds the answer log into the
// review scheduler.
func (e *Engine) Advance(ctx context.Context, sessionID string) (*models.AdvanceResponse, error) {
	mu := e.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Status != models.SessionInProgress {
		return nil, &SessionClosedError{SessionID: sessionID}
	}

	state.CurrentIndex++
	if state.CurrentIndex >= len(state.Questions) {
		state.CurrentIndex = len(state.Questions)
		state.Status = models.SessionCompleted
		completedAt := e.now()
		state.CompletedAt = &completedAt

		if err := e.scheduler.RecordCompletion(ctx, state.LearnerID, state.Answers); err != nil {
			return nil, fmt.Errorf("record completion: %w", err)
		}
		if e.archiver != nil {
			if err := e.archiver.Archive(ctx, state); err != nil {
				log.Printf("WARN: session %s: archive failed: %v", sessionID, err)
			}
		}
	}

	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if state.Status == models.SessionCompleted {
		e.locks.Delete(sessionID)
	}

	return &models.AdvanceResponse{
		Status:       state.Status,
		CurrentIndex: state.CurrentIndex,
		Total:        len(state.Questions),
	}, nil
}

// Finalize returns the result summary of a completed session. Pure read,
// callable any number of times.
func (e *Engine) Finalize(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	state, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Status != models.SessionCompleted {
		return nil, ErrSessionInProgress
	}

	summary := &models.SessionSummary{
		SessionID:   state.ID,
		SubjectTag:  state.SubjectTag,
		Review:      state.Review,
		Total:       len(state.Questions),
		Answered:    len(state.Answers),
		StartedAt:   state.StartedAt,
		CompletedAt: *state.CompletedAt,
		Breakdown:   state.Answers,
	}
	for _, entry := range state.Answers {
		if entry.Correct {
			summary.CorrectCount++
		}
		summary.TotalElapsedMs += entry.ElapsedMs
	}
	return summary, nil
}
