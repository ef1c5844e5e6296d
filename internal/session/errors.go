package session

import (
	"errors"
	"fmt"

	"github.com/rccm-prep/backend/internal/models"
)

// SessionNotFoundError means the session id resolves to nothing. The
// engine never silently creates a replacement session; that failure mode
// is how one subject's session used to get swapped for another's.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}

// SessionClosedError means the operation needs an in-progress session but
// the session has completed.
type SessionClosedError struct {
	SessionID string
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session %s is completed", e.SessionID)
}

// OutOfSequenceError means a submission named a question other than the
// one at the current index (a stale page or a replayed request).
type OutOfSequenceError struct {
	SessionID string
	Submitted models.QuestionRef
	Expected  models.QuestionRef
}

func (e *OutOfSequenceError) Error() string {
	return fmt.Sprintf("session %s: submitted answer for %s but the current question is %s",
		e.SessionID, e.Submitted, e.Expected)
}

// ErrSessionInProgress is returned by Finalize on a session that has not
// completed yet.
var ErrSessionInProgress = errors.New("session still in progress")
