// Package bank loads and indexes the question bank. The repository is
// read-only after load and safe to share across requests without locking.
package bank

import (
	"fmt"
	"sort"

	"github.com/rccm-prep/backend/internal/catalog"
	"github.com/rccm-prep/backend/internal/models"
)

// IngestionError describes one unusable bank record. The loader logs these
// and skips the record; it never coerces bad data into the index.
type IngestionError struct {
	File   string
	Line   int
	Reason string
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

type partition struct {
	tag  string
	year int
}

// Repository indexes questions by (subject tag, year) partition and by ref.
type Repository struct {
	catalog     *catalog.Catalog
	byPartition map[partition][]*models.Question
	byRef       map[models.QuestionRef]*models.Question
}

func NewRepository(cat *catalog.Catalog) *Repository {
	return &Repository{
		catalog:     cat,
		byPartition: make(map[partition][]*models.Question),
		byRef:       make(map[models.QuestionRef]*models.Question),
	}
}

// Catalog returns the shared subject catalog handle.
func (r *Repository) Catalog() *catalog.Catalog { return r.catalog }

// validate checks the record invariants: every field except the explanation
// non-empty, the correct option one of A–D, and the subject tag known to
// the catalog with the record's year inside the area's year set.
func (r *Repository) validate(q *models.Question) string {
	if q.Ref.ID <= 0 {
		return "missing or non-positive id"
	}
	if q.Ref.SubjectTag == "" {
		return "missing subject tag"
	}
	area, ok := r.catalog.Area(q.Ref.SubjectTag)
	if !ok {
		return fmt.Sprintf("subject tag %q not in catalog", q.Ref.SubjectTag)
	}
	if !area.HasYear(q.Ref.Year) {
		return fmt.Sprintf("year %d outside %q year set", q.Ref.Year, q.Ref.SubjectTag)
	}
	if q.Prompt == "" {
		return "missing prompt"
	}
	if !models.ValidOptions[q.Correct] {
		return fmt.Sprintf("invalid correct option %q", string(q.Correct))
	}
	for _, opt := range []models.Option{models.OptionA, models.OptionB, models.OptionC, models.OptionD} {
		text, _ := q.OptionText(opt)
		if text == "" {
			return fmt.Sprintf("missing option %s text", opt)
		}
	}
	return ""
}

// add indexes one validated record. Returns the reason string when the
// record is rejected (invalid or a duplicate ref within its partition).
func (r *Repository) add(q *models.Question) string {
	if reason := r.validate(q); reason != "" {
		return reason
	}
	if _, dup := r.byRef[q.Ref]; dup {
		return fmt.Sprintf("duplicate id %d in partition", q.Ref.ID)
	}
	p := partition{tag: q.Ref.SubjectTag, year: q.Ref.Year}
	r.byPartition[p] = append(r.byPartition[p], q)
	r.byRef[q.Ref] = q
	return ""
}

// ByTagAndYear returns the partition for an exact (tag, year) pair.
// Use models.BasicYear for the year-less basic partition.
func (r *Repository) ByTagAndYear(tag string, year int) []*models.Question {
	qs := r.byPartition[partition{tag: tag, year: year}]
	out := make([]*models.Question, len(qs))
	copy(out, qs)
	return out
}

// ByTag returns every question carrying the tag, across all years,
// ordered by (year, id).
func (r *Repository) ByTag(tag string) []*models.Question {
	var out []*models.Question
	for p, qs := range r.byPartition {
		if p.tag == tag {
			out = append(out, qs...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ref.Year != out[j].Ref.Year {
			return out[i].Ref.Year < out[j].Ref.Year
		}
		return out[i].Ref.ID < out[j].Ref.ID
	})
	return out
}

// ByRef looks up one question by its partition-scoped identity.
func (r *Repository) ByRef(ref models.QuestionRef) (*models.Question, bool) {
	q, ok := r.byRef[ref]
	return q, ok
}

// Years returns the years for which the tag actually has loaded questions.
func (r *Repository) Years(tag string) []int {
	var years []int
	for p := range r.byPartition {
		if p.tag == tag {
			years = append(years, p.year)
		}
	}
	sort.Ints(years)
	return years
}

// CountByTag returns the number of loaded questions for the tag.
func (r *Repository) CountByTag(tag string) int {
	n := 0
	for p, qs := range r.byPartition {
		if p.tag == tag {
			n += len(qs)
		}
	}
	return n
}

// Count returns the total number of loaded questions.
func (r *Repository) Count() int { return len(r.byRef) }
