package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rccm-prep/backend/internal/bank"
	"github.com/rccm-prep/backend/internal/catalog"
	"github.com/rccm-prep/backend/internal/models"
	"github.com/rccm-prep/backend/internal/review"
	"github.com/rccm-prep/backend/internal/selection"
)

// newTestEngine wires an engine over a 40-question road / 15-question
// tunnel fixture bank, in-memory stores, and a fixed clock.
func newTestEngine(t *testing.T) (*Engine, *bank.Repository, *review.Scheduler) {
	t.Helper()
	dir := t.TempDir()

	header := "id,category,question,option_a,option_b,option_c,option_d,correct_answer,explanation\n"
	for year := 2015; year <= 2019; year++ {
		var b strings.Builder
		b.WriteString(header)
		for id := 1; id <= 8; id++ {
			fmt.Fprintf(&b, "%d,道路,設問%d,ア,イ,ウ,エ,A,解説%d\n", id, id, id)
		}
		if year == 2019 {
			for id := 1; id <= 15; id++ {
				fmt.Fprintf(&b, "%d,トンネル,設問%d,ア,イ,ウ,エ,B,\n", id, id)
			}
		}
		name := fmt.Sprintf("4-2_%d.csv", year)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	repo := bank.NewRepository(catalog.Default())
	if _, err := repo.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scheduler := review.NewSchedulerWithClock(review.NewMemoryStore(), 5, func() time.Time { return clock })
	selector := selection.NewEngineWithSeed(repo.Catalog(), repo, 7)

	eng := NewEngine(NewMemoryStore(), selector, repo, scheduler)
	eng.now = func() time.Time { return clock }

	return eng, repo, scheduler
}

// runSession answers every question (correctly when correct is true) and
// advances to completion.
func runSession(t *testing.T, eng *Engine, repo *bank.Repository, state *models.SessionState, correct bool) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < len(state.Questions); i++ {
		served, err := eng.CurrentQuestion(ctx, state.ID)
		if err != nil {
			t.Fatalf("CurrentQuestion %d: %v", i, err)
		}
		q, _ := repo.ByRef(served.Ref)
		chosen := string(q.Correct)
		if !correct {
			chosen = wrongOption(q.Correct)
		}
		if _, err := eng.SubmitAnswer(ctx, state.ID, models.SubmitAnswerRequest{Ref: served.Ref, Chosen: chosen}); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if _, err := eng.Advance(ctx, state.ID); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}
}

func wrongOption(correct models.Option) string {
	if correct == models.OptionA {
		return "B"
	}
	return "A"
}

func TestSessionLifecycle(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()

	state, insufficient, err := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 10})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if insufficient {
		t.Error("insufficient flagged for a 40-question pool")
	}
	if len(state.Questions) != 10 || state.CurrentIndex != 0 || state.Status != models.SessionInProgress {
		t.Fatalf("bad initial state: %+v", state)
	}
	for _, ref := range state.Questions {
		if ref.SubjectTag != "道路" {
			t.Fatalf("session contains %s, want only road questions", ref)
		}
	}

	runSession(t, eng, repo, state, true)

	summary, err := eng.Finalize(ctx, state.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if summary.Total != 10 || summary.Answered != 10 || summary.CorrectCount != 10 {
		t.Errorf("summary = %+v, want 10/10/10", summary)
	}
	if len(summary.Breakdown) != 10 {
		t.Errorf("breakdown has %d entries, want 10", len(summary.Breakdown))
	}

	// Finalize is a pure read, so it is repeatable.
	again, err := eng.Finalize(ctx, state.ID)
	if err != nil || again.CorrectCount != summary.CorrectCount {
		t.Errorf("second Finalize = %+v, %v", again, err)
	}
}

func TestCurrentQuestionIsIdempotent(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	state, _, err := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 5})
	if err != nil {
		t.Fatal(err)
	}

	first, err := eng.CurrentQuestion(ctx, state.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := eng.CurrentQuestion(ctx, state.ID)
		if err != nil {
			t.Fatal(err)
		}
		if again.Ref != first.Ref || again.Number != 1 {
			t.Errorf("repeat read changed the current question: %+v", again)
		}
	}
}

func TestSubmitAnswerExactlyOnce(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 5})
	served, _ := eng.CurrentQuestion(ctx, state.ID)

	first, err := eng.SubmitAnswer(ctx, state.ID, models.SubmitAnswerRequest{Ref: served.Ref, Chosen: "A"})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Repeated {
		t.Error("first submission marked repeated")
	}

	second, err := eng.SubmitAnswer(ctx, state.ID, models.SubmitAnswerRequest{Ref: served.Ref, Chosen: "A"})
	if err != nil {
		t.Fatalf("repeat submit: %v", err)
	}
	if !second.Repeated || second.Correct != first.Correct {
		t.Errorf("repeat submit = %+v, want replay of first outcome", second)
	}

	stored, err := eng.store.Get(ctx, state.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Answers) != 1 {
		t.Errorf("answer log has %d entries after duplicate submit, want 1", len(stored.Answers))
	}
}

func TestSubmitAnswerOutOfSequence(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()

	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 10})

	// Answer questions 1–3 (question 3 incorrectly), then advance past it.
	var thirdRef models.QuestionRef
	for i := 0; i < 3; i++ {
		served, _ := eng.CurrentQuestion(ctx, state.ID)
		q, _ := repo.ByRef(served.Ref)
		chosen := string(q.Correct)
		if i == 2 {
			thirdRef = served.Ref
			chosen = wrongOption(q.Correct)
		}
		if _, err := eng.SubmitAnswer(ctx, state.ID, models.SubmitAnswerRequest{Ref: served.Ref, Chosen: chosen}); err != nil {
			t.Fatal(err)
		}
		if _, err := eng.Advance(ctx, state.ID); err != nil {
			t.Fatal(err)
		}
	}

	// currentIndex is now 3 (question 4). Resubmitting question 3 must fail.
	_, err := eng.SubmitAnswer(ctx, state.ID, models.SubmitAnswerRequest{Ref: thirdRef, Chosen: "A"})
	var outOfSeq *OutOfSequenceError
	if !errors.As(err, &outOfSeq) {
		t.Fatalf("late resubmit error = %v, want OutOfSequenceError", err)
	}
	if outOfSeq.Submitted != thirdRef {
		t.Errorf("error names %s, want %s", outOfSeq.Submitted, thirdRef)
	}
}

func TestCompletedSessionIsTerminal(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()

	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 3})
	runSession(t, eng, repo, state, true)

	stored, _ := eng.store.Get(ctx, state.ID)
	if stored.Status != models.SessionCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}

	var closed *SessionClosedError
	if _, err := eng.CurrentQuestion(ctx, state.ID); !errors.As(err, &closed) {
		t.Errorf("CurrentQuestion on completed session: %v, want SessionClosedError", err)
	}
	ref := state.Questions[0]
	if _, err := eng.SubmitAnswer(ctx, state.ID, models.SubmitAnswerRequest{Ref: ref, Chosen: "A"}); !errors.As(err, &closed) {
		t.Errorf("SubmitAnswer on completed session: %v, want SessionClosedError", err)
	}
	if _, err := eng.Advance(ctx, state.ID); !errors.As(err, &closed) {
		t.Errorf("Advance on completed session: %v, want SessionClosedError", err)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 4})

	prev := 0
	completions := 0
	for i := 0; i < 4; i++ {
		resp, err := eng.Advance(ctx, state.ID)
		if err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
		if resp.CurrentIndex < prev {
			t.Errorf("index went backwards: %d after %d", resp.CurrentIndex, prev)
		}
		prev = resp.CurrentIndex
		if resp.Status == models.SessionCompleted {
			completions++
		}
	}
	if completions != 1 {
		t.Errorf("completed %d times, want exactly once", completions)
	}
}

func TestUnknownSessionID(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	var notFound *SessionNotFoundError
	if _, err := eng.CurrentQuestion(ctx, "no-such-session"); !errors.As(err, &notFound) {
		t.Errorf("CurrentQuestion: %v, want SessionNotFoundError", err)
	}
	if _, err := eng.SubmitAnswer(ctx, "no-such-session", models.SubmitAnswerRequest{Chosen: "A"}); !errors.As(err, &notFound) {
		t.Errorf("SubmitAnswer: %v, want SessionNotFoundError", err)
	}
	if _, err := eng.Advance(ctx, "no-such-session"); !errors.As(err, &notFound) {
		t.Errorf("Advance: %v, want SessionNotFoundError", err)
	}
	if _, err := eng.Finalize(ctx, "no-such-session"); !errors.As(err, &notFound) {
		t.Errorf("Finalize: %v, want SessionNotFoundError", err)
	}
}

func TestFinalizeInProgress(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 3})
	if _, err := eng.Finalize(ctx, state.ID); !errors.Is(err, ErrSessionInProgress) {
		t.Errorf("Finalize on in-progress session: %v, want ErrSessionInProgress", err)
	}
}

func TestCompletionFeedsScheduler(t *testing.T) {
	eng, repo, scheduler := newTestEngine(t)
	ctx := context.Background()

	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 5})
	runSession(t, eng, repo, state, false) // all wrong

	sum, err := scheduler.Summary(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TrackedCount != 5 {
		t.Errorf("scheduler tracks %d questions after completion, want 5", sum.TrackedCount)
	}

	// Wrong answers come due after their 1-day interval.
	due, _ := scheduler.DueSet(ctx, 1, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC))
	if len(due) != 5 {
		t.Errorf("due set has %d refs, want 5", len(due))
	}
}

func TestStartReviewUsesDueSet(t *testing.T) {
	eng, repo, scheduler := newTestEngine(t)
	ctx := context.Background()

	// Seed mastery state: a 5-question road session answered all wrong.
	state, _, _ := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "road", Count: 5})
	runSession(t, eng, repo, state, false)

	// Move the clock past the 1-day interval so the questions are due.
	later := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	eng.now = func() time.Time { return later }

	reviewState, insufficient, err := eng.StartReview(ctx, 1, models.StartReviewRequest{Subject: "road", Count: 10})
	if err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	if !insufficient {
		t.Error("expected insufficient for a 5-question due set")
	}
	if !reviewState.Review {
		t.Error("review session not flagged")
	}
	if len(reviewState.Questions) != 5 {
		t.Fatalf("review session has %d questions, want 5", len(reviewState.Questions))
	}

	wasInFirst := make(map[models.QuestionRef]bool)
	for _, ref := range state.Questions {
		wasInFirst[ref] = true
	}
	for _, ref := range reviewState.Questions {
		if ref.SubjectTag != "道路" {
			t.Errorf("review question %s is not road", ref)
		}
		if !wasInFirst[ref] {
			t.Errorf("review question %s was never attempted", ref)
		}
	}

	// Scheduler usage check: no due questions for an untouched learner.
	if _, _, err := eng.StartReview(ctx, 2, models.StartReviewRequest{Subject: "road", Count: 10}); err == nil {
		t.Error("StartReview for a learner with no due questions should fail")
	}
	_ = scheduler
}

func TestStartInsufficientPool(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	state, insufficient, err := eng.Start(ctx, 1, models.StartSessionRequest{Subject: "tunnel", Count: 30})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !insufficient {
		t.Error("insufficient flag not set")
	}
	if len(state.Questions) != 15 {
		t.Errorf("session has %d questions, want the whole 15-question pool", len(state.Questions))
	}
}
