package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Option is one of the four answer letters.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

var ValidOptions = map[Option]bool{
	OptionA: true,
	OptionB: true,
	OptionC: true,
	OptionD: true,
}

// NormalizeOption maps a raw answer value ("a", " C ", ...) to a canonical
// Option. Returns false for anything outside A–D.
func NormalizeOption(raw string) (Option, bool) {
	opt := Option(strings.ToUpper(strings.TrimSpace(raw)))
	return opt, ValidOptions[opt]
}

// BasicYear is the year value used for the year-less basic partition.
const BasicYear = 0

// QuestionRef identifies a question within its (subject, year) partition.
// Numeric ids repeat across partitions, so the ref is the real identity.
type QuestionRef struct {
	SubjectTag string `json:"subject_tag"`
	Year       int    `json:"year"`
	ID         int    `json:"id"`
}

// Key returns the ref in "tag|year|id" form, used as the storage key for
// mastery records.
func (r QuestionRef) Key() string {
	return fmt.Sprintf("%s|%d|%d", r.SubjectTag, r.Year, r.ID)
}

func (r QuestionRef) String() string {
	if r.Year == BasicYear {
		return fmt.Sprintf("%s/%d", r.SubjectTag, r.ID)
	}
	return fmt.Sprintf("%s/%d/%d", r.SubjectTag, r.Year, r.ID)
}

// ParseRefKey is the inverse of QuestionRef.Key.
func ParseRefKey(key string) (QuestionRef, error) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 || parts[0] == "" {
		return QuestionRef{}, fmt.Errorf("malformed question key %q", key)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return QuestionRef{}, fmt.Errorf("malformed year in question key %q", key)
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return QuestionRef{}, fmt.Errorf("malformed id in question key %q", key)
	}
	return QuestionRef{SubjectTag: parts[0], Year: year, ID: id}, nil
}

// Question is one bank record. Immutable once loaded.
type Question struct {
	Ref         QuestionRef `json:"ref"`
	Prompt      string      `json:"prompt"`
	OptionA     string      `json:"option_a"`
	OptionB     string      `json:"option_b"`
	OptionC     string      `json:"option_c"`
	OptionD     string      `json:"option_d"`
	Correct     Option      `json:"-"`
	Explanation string      `json:"explanation,omitempty"`
}

// OptionText returns the text of the given answer option.
func (q *Question) OptionText(opt Option) (string, bool) {
	switch opt {
	case OptionA:
		return q.OptionA, true
	case OptionB:
		return q.OptionB, true
	case OptionC:
		return q.OptionC, true
	case OptionD:
		return q.OptionD, true
	}
	return "", false
}

// ── Selection Types ─────────────────────────────────────

// SelectionRequest asks for count questions from one subject area.
// Subject is the external name (or the canonical tag itself). An empty
// Years slice means "any year the area covers".
type SelectionRequest struct {
	Subject string `json:"subject"`
	Years   []int  `json:"years,omitempty"`
	Count   int    `json:"count"`
}

// SelectionResult is an ordered, deduplicated draw from one subject's pool.
// Every ref is guaranteed to carry the requested subject tag. Insufficient
// is set when the pool had fewer than Requested candidates; the result then
// holds the whole pool and nothing else.
type SelectionResult struct {
	SubjectTag   string        `json:"subject_tag"`
	Refs         []QuestionRef `json:"refs"`
	Requested    int           `json:"requested"`
	Insufficient bool          `json:"insufficient"`
}
