package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rccm-prep/backend/internal/models"
)

// PGArchiver writes completed sessions to Postgres, one row per session
// with the answer log as JSON.
type PGArchiver struct {
	db *sql.DB
}

func NewPGArchiver(db *sql.DB) *PGArchiver {
	return &PGArchiver{db: db}
}

func (a *PGArchiver) Archive(ctx context.Context, state *models.SessionState) error {
	answers, err := json.Marshal(state.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	correct := 0
	for _, entry := range state.Answers {
		if entry.Correct {
			correct++
		}
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO session_archive
		     (session_id, learner_id, subject_tag, review, total, answered, correct_count,
		      answers, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (session_id) DO NOTHING`,
		state.ID, state.LearnerID, state.SubjectTag, state.Review,
		len(state.Questions), len(state.Answers), correct,
		answers, state.StartedAt, state.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session archive: %w", err)
	}
	return nil
}
