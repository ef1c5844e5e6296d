// Package selection draws question sets from the bank with a hard
// subject-integrity guarantee: a result for subject T contains questions
// tagged T and nothing else, or no result at all.
package selection

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/rccm-prep/backend/internal/bank"
	"github.com/rccm-prep/backend/internal/catalog"
	"github.com/rccm-prep/backend/internal/models"
)

// IntegrityViolationError means a candidate carried a different subject tag
// than the one requested. The selection is aborted; the tainted result is
// never returned, so contamination surfaces instead of degrading silently.
type IntegrityViolationError struct {
	RequestedTag string
	FoundTag     string
	Ref          models.QuestionRef
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf("selection integrity violation: requested %q but candidate %s is tagged %q",
		e.RequestedTag, e.Ref, e.FoundTag)
}

// YearOutOfRangeError means a requested year is outside the area's known
// year set.
type YearOutOfRangeError struct {
	SubjectTag string
	Year       int
}

func (e *YearOutOfRangeError) Error() string {
	return fmt.Sprintf("year %d is outside the %q year set", e.Year, e.SubjectTag)
}

// Engine draws from the repository via uniform sampling without
// replacement. Safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	repo    *bank.Repository

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(cat *catalog.Catalog, repo *bank.Repository) *Engine {
	return newEngine(cat, repo, rand.NewSource(time.Now().UnixNano()))
}

// NewEngineWithSeed fixes the sampling order, for tests.
func NewEngineWithSeed(cat *catalog.Catalog, repo *bank.Repository, seed int64) *Engine {
	return newEngine(cat, repo, rand.NewSource(seed))
}

func newEngine(cat *catalog.Catalog, repo *bank.Repository, src rand.Source) *Engine {
	return &Engine{catalog: cat, repo: repo, rng: rand.New(src)}
}

// Select resolves the request's subject, gathers the candidate pool across
// the requested years, re-checks every candidate's tag, and samples
// request.Count distinct questions. A pool smaller than the request is
// returned whole with the Insufficient flag set, never padded.
func (e *Engine) Select(req models.SelectionRequest) (*models.SelectionResult, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("selection count must be positive, got %d", req.Count)
	}

	tag, err := e.catalog.Resolve(req.Subject)
	if err != nil {
		return nil, err
	}
	area, _ := e.catalog.Area(tag)

	years := req.Years
	if len(years) == 0 {
		years = area.Years
		if len(years) == 0 {
			years = []int{models.BasicYear} // year-less basic partition
		}
	} else {
		for _, y := range years {
			if !area.HasYear(y) {
				return nil, &YearOutOfRangeError{SubjectTag: tag, Year: y}
			}
		}
	}

	var pool []*models.Question
	for _, y := range years {
		pool = append(pool, e.repo.ByTagAndYear(tag, y)...)
	}

	return e.draw(tag, pool, req.Count)
}

// SelectFromRefs draws from an explicit candidate ref list (the review
// scheduler's due set) instead of the year axis. Refs no longer present in
// the bank are dropped; refs for other subjects are ignored before the
// integrity gate, since a due set legitimately spans subjects.
func (e *Engine) SelectFromRefs(subject string, refs []models.QuestionRef, count int) (*models.SelectionResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("selection count must be positive, got %d", count)
	}

	tag, err := e.catalog.Resolve(subject)
	if err != nil {
		return nil, err
	}

	var pool []*models.Question
	for _, ref := range refs {
		if ref.SubjectTag != tag {
			continue
		}
		q, ok := e.repo.ByRef(ref)
		if !ok {
			log.Printf("WARN: selection: due ref %s no longer in bank, dropping", ref)
			continue
		}
		pool = append(pool, q)
	}

	return e.draw(tag, pool, count)
}

// draw runs the integrity gate, dedup, and sampling over a gathered pool.
func (e *Engine) draw(tag string, pool []*models.Question, count int) (*models.SelectionResult, error) {
	seen := make(map[models.QuestionRef]bool, len(pool))
	candidates := make([]models.QuestionRef, 0, len(pool))
	for _, q := range pool {
		// The integrity gate. Candidates are gathered by exact-tag lookup,
		// so a mismatch here is a bank or index defect that must abort the
		// selection rather than leak into a session.
		if q.Ref.SubjectTag != tag {
			return nil, &IntegrityViolationError{RequestedTag: tag, FoundTag: q.Ref.SubjectTag, Ref: q.Ref}
		}
		if seen[q.Ref] {
			continue
		}
		seen[q.Ref] = true
		candidates = append(candidates, q.Ref)
	}

	result := &models.SelectionResult{SubjectTag: tag, Requested: count}

	e.mu.Lock()
	perm := e.rng.Perm(len(candidates))
	e.mu.Unlock()

	if len(candidates) < count {
		// Short pool: return everything we have, flagged, never padded.
		result.Insufficient = true
		result.Refs = make([]models.QuestionRef, 0, len(candidates))
		for _, i := range perm {
			result.Refs = append(result.Refs, candidates[i])
		}
		return result, nil
	}

	result.Refs = make([]models.QuestionRef, 0, count)
	for _, i := range perm[:count] {
		result.Refs = append(result.Refs, candidates[i])
	}
	return result, nil
}
