package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "rccm_user")
	password := getEnv("DB_PASSWORD", "rccm_password")
	dbname := getEnv("DB_NAME", "rccm_prep")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS mastery_records (
		learner_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		question_key   VARCHAR(255) NOT NULL,
		subject_tag    VARCHAR(100) NOT NULL,
		year           INT NOT NULL,
		question_id    INT NOT NULL,
		attempt_count  INT NOT NULL DEFAULT 0,
		correct_count  INT NOT NULL DEFAULT 0,
		current_streak INT NOT NULL DEFAULT 0,
		interval_days  INT NOT NULL DEFAULT 0,
		mastered       BOOLEAN NOT NULL DEFAULT FALSE,
		last_attempt_at TIMESTAMP WITH TIME ZONE NOT NULL,
		next_due_at    TIMESTAMP WITH TIME ZONE NOT NULL,
		PRIMARY KEY (learner_id, question_key)
	);

	CREATE INDEX IF NOT EXISTS idx_mastery_due
		ON mastery_records(learner_id, next_due_at) WHERE NOT mastered;
	CREATE INDEX IF NOT EXISTS idx_mastery_subject
		ON mastery_records(learner_id, subject_tag);

	CREATE TABLE IF NOT EXISTS session_archive (
		session_id    VARCHAR(36) PRIMARY KEY,
		learner_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		subject_tag   VARCHAR(100) NOT NULL,
		review        BOOLEAN NOT NULL DEFAULT FALSE,
		total         INT NOT NULL,
		answered      INT NOT NULL,
		correct_count INT NOT NULL,
		answers       JSONB NOT NULL,
		started_at    TIMESTAMP WITH TIME ZONE NOT NULL,
		completed_at  TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archive_learner
		ON session_archive(learner_id, completed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_archive_subject
		ON session_archive(learner_id, subject_tag);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
