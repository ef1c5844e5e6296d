package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rccm-prep/backend/internal/models"
)

// PGStore persists mastery records in Postgres, one row per
// (learner, question) key, last write wins.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, learnerID int64, key string) (*models.MasteryRecord, error) {
	var (
		rec models.MasteryRecord
		tag string
		yr  int
		qid int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT learner_id, subject_tag, year, question_id,
		        attempt_count, correct_count, current_streak, interval_days,
		        mastered, last_attempt_at, next_due_at
		 FROM mastery_records WHERE learner_id = $1 AND question_key = $2`,
		learnerID, key,
	).Scan(&rec.LearnerID, &tag, &yr, &qid,
		&rec.AttemptCount, &rec.CorrectCount, &rec.CurrentStreak, &rec.IntervalDays,
		&rec.Mastered, &rec.LastAttemptAt, &rec.NextDueAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mastery record: %w", err)
	}
	rec.Ref = models.QuestionRef{SubjectTag: tag, Year: yr, ID: qid}
	return &rec, nil
}

func (s *PGStore) Put(ctx context.Context, rec *models.MasteryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mastery_records
		     (learner_id, question_key, subject_tag, year, question_id,
		      attempt_count, correct_count, current_streak, interval_days,
		      mastered, last_attempt_at, next_due_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (learner_id, question_key)
		 DO UPDATE SET attempt_count = $6, correct_count = $7, current_streak = $8,
		               interval_days = $9, mastered = $10, last_attempt_at = $11,
		               next_due_at = $12`,
		rec.LearnerID, rec.Ref.Key(), rec.Ref.SubjectTag, rec.Ref.Year, rec.Ref.ID,
		rec.AttemptCount, rec.CorrectCount, rec.CurrentStreak, rec.IntervalDays,
		rec.Mastered, rec.LastAttemptAt, rec.NextDueAt,
	)
	if err != nil {
		return fmt.Errorf("put mastery record: %w", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, learnerID int64, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM mastery_records WHERE learner_id = $1 AND question_key = $2`,
		learnerID, key,
	)
	if err != nil {
		return fmt.Errorf("delete mastery record: %w", err)
	}
	return nil
}

func (s *PGStore) ListDue(ctx context.Context, learnerID int64, now time.Time) ([]models.MasteryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT learner_id, subject_tag, year, question_id,
		        attempt_count, correct_count, current_streak, interval_days,
		        mastered, last_attempt_at, next_due_at
		 FROM mastery_records
		 WHERE learner_id = $1 AND mastered = FALSE AND next_due_at <= $2`,
		learnerID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("list due records: %w", err)
	}
	defer rows.Close()

	var recs []models.MasteryRecord
	for rows.Next() {
		var (
			rec models.MasteryRecord
			tag string
			yr  int
			qid int
		)
		if err := rows.Scan(&rec.LearnerID, &tag, &yr, &qid,
			&rec.AttemptCount, &rec.CorrectCount, &rec.CurrentStreak, &rec.IntervalDays,
			&rec.Mastered, &rec.LastAttemptAt, &rec.NextDueAt); err != nil {
			return nil, fmt.Errorf("scan mastery record: %w", err)
		}
		rec.Ref = models.QuestionRef{SubjectTag: tag, Year: yr, ID: qid}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *PGStore) Counts(ctx context.Context, learnerID int64) (int, int, error) {
	var tracked, mastered int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE mastered)
		 FROM mastery_records WHERE learner_id = $1`,
		learnerID,
	).Scan(&tracked, &mastered)
	if err != nil {
		return 0, 0, fmt.Errorf("count mastery records: %w", err)
	}
	return tracked, mastered, nil
}
