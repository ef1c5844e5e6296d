package models

import "time"

// MasteryRecord tracks one learner's long-term grip on one question.
// Created on the first attempt, updated after every attempt, deleted only
// by an explicit reset.
type MasteryRecord struct {
	LearnerID     int64       `json:"learner_id"`
	Ref           QuestionRef `json:"ref"`
	AttemptCount  int         `json:"attempt_count"`
	CorrectCount  int         `json:"correct_count"`
	CurrentStreak int         `json:"current_streak"`
	IntervalDays  int         `json:"interval_days"`
	Mastered      bool        `json:"mastered"`
	LastAttemptAt time.Time   `json:"last_attempt_at"`
	NextDueAt     time.Time   `json:"next_due_at"`
}

// ── API Request/Response Types ──────────────────────────

type DueSetResponse struct {
	Refs  []QuestionRef `json:"refs"`
	Count int           `json:"count"`
}

type ResetMasteryRequest struct {
	Ref QuestionRef `json:"ref"`
}

// MasterySummary aggregates a learner's review state.
type MasterySummary struct {
	TrackedCount  int `json:"tracked_count"`
	MasteredCount int `json:"mastered_count"`
	DueCount      int `json:"due_count"`
}
