package models

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// AnswerEntry is one scored submission in a session's answer log.
type AnswerEntry struct {
	Ref        QuestionRef `json:"ref"`
	Chosen     Option      `json:"chosen"`
	Correct    bool        `json:"correct"`
	ElapsedMs  int64       `json:"elapsed_ms"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// SessionState is the full state of one learner's run through a fixed
// question order. Mutated only by the session engine.
type SessionState struct {
	ID           string        `json:"id"`
	LearnerID    int64         `json:"learner_id"`
	SubjectTag   string        `json:"subject_tag"`
	Review       bool          `json:"review"`
	Questions    []QuestionRef `json:"questions"`
	CurrentIndex int           `json:"current_index"`
	Answers      []AnswerEntry `json:"answers"`
	Status       SessionStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// ── API Request/Response Types ──────────────────────────

type StartSessionRequest struct {
	Subject string `json:"subject"`
	Years   []int  `json:"years,omitempty"`
	Count   int    `json:"count"`
}

type StartReviewRequest struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

type StartSessionResponse struct {
	SessionID    string `json:"session_id"`
	SubjectTag   string `json:"subject_tag"`
	Review       bool   `json:"review"`
	Total        int    `json:"total"`
	Insufficient bool   `json:"insufficient"`
}

// ServedQuestion is a question as handed to the learner: options only,
// never the answer.
type ServedQuestion struct {
	Ref     QuestionRef `json:"ref"`
	Number  int         `json:"number"`
	Total   int         `json:"total"`
	Prompt  string      `json:"prompt"`
	OptionA string      `json:"option_a"`
	OptionB string      `json:"option_b"`
	OptionC string      `json:"option_c"`
	OptionD string      `json:"option_d"`
}

type SubmitAnswerRequest struct {
	Ref       QuestionRef `json:"ref"`
	Chosen    string      `json:"chosen"`
	ElapsedMs int64       `json:"elapsed_ms,omitempty"`
}

type SubmitAnswerResponse struct {
	Correct     bool   `json:"correct"`
	Chosen      Option `json:"chosen"`
	Answer      Option `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
	Repeated    bool   `json:"repeated"`
}

type AdvanceResponse struct {
	Status       SessionStatus `json:"status"`
	CurrentIndex int           `json:"current_index"`
	Total        int           `json:"total"`
}

// SessionSummary is the read-only result view of a completed session.
type SessionSummary struct {
	SessionID      string        `json:"session_id"`
	SubjectTag     string        `json:"subject_tag"`
	Review         bool          `json:"review"`
	Total          int           `json:"total"`
	Answered       int           `json:"answered"`
	CorrectCount   int           `json:"correct_count"`
	TotalElapsedMs int64         `json:"total_elapsed_ms"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
	Breakdown      []AnswerEntry `json:"breakdown"`
}
