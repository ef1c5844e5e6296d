package bank

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/rccm-prep/backend/internal/models"
)

// Bank files follow the exam's naming scheme: 4-1 is the year-less basic
// partition, 4-2_YYYY one specialist exam year.
var (
	basicFileRe      = regexp.MustCompile(`^4-1\.(csv|xlsx)$`)
	specialistFileRe = regexp.MustCompile(`^4-2_(\d{4})\.(csv|xlsx)$`)
)

const basicTag = "共通"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadDir loads every recognized bank file in dir. Unrecognized filenames
// are ignored. Returns the number of questions loaded.
func (r *Repository) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read bank dir: %w", err)
	}

	total := 0
	files := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !basicFileRe.MatchString(name) && !specialistFileRe.MatchString(name) {
			continue
		}
		n, err := r.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return total, err
		}
		total += n
		files++
	}
	log.Printf("bank: loaded %d questions from %d files in %s", total, files, dir)
	return total, nil
}

// LoadFile loads one bank file. The partition comes from the filename:
// 4-1.csv|xlsx is the basic partition, 4-2_YYYY.csv|xlsx one specialist
// year. Invalid rows are logged and skipped.
func (r *Repository) LoadFile(path string) (int, error) {
	name := filepath.Base(path)

	var year int
	basic := false
	switch {
	case basicFileRe.MatchString(name):
		basic = true
		year = models.BasicYear
	case specialistFileRe.MatchString(name):
		m := specialistFileRe.FindStringSubmatch(name)
		year, _ = strconv.Atoi(m[1])
	default:
		return 0, fmt.Errorf("bank file %s does not match 4-1 or 4-2_YYYY naming", name)
	}

	var (
		rows [][]string
		err  error
	)
	if strings.HasSuffix(name, ".xlsx") {
		rows, err = readXLSX(path)
	} else {
		rows, err = readCSV(path)
	}
	if err != nil {
		return 0, err
	}

	return r.loadRows(name, rows, basic, year)
}

// readCSV reads a delimited bank file, tolerating the encodings the source
// banks actually ship in: UTF-8 (with or without BOM) and Shift_JIS/CP932.
func readCSV(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var reader io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		reader = transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder())
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1 // validated per row against the header
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// loadRows ingests header-plus-data rows into the index. The first row
// must name the columns; each data row becomes one question record.
func (r *Repository) loadRows(file string, rows [][]string, basic bool, year int) (int, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("bank file %s is empty", file)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"id", "question", "option_a", "option_b", "option_c", "option_d", "correct_answer"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("bank file %s missing column %q", file, required)
		}
	}
	if !basic {
		if _, ok := cols["category"]; !ok {
			return 0, fmt.Errorf("bank file %s missing column %q", file, "category")
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	loaded := 0
	for n, row := range rows[1:] {
		line := n + 2 // 1-based, after the header

		id, err := strconv.Atoi(field(row, "id"))
		if err != nil {
			r.skip(&IngestionError{File: file, Line: line, Reason: "non-numeric id"})
			continue
		}

		tag := basicTag
		if !basic {
			tag = field(row, "category")
		}

		correct, ok := models.NormalizeOption(field(row, "correct_answer"))
		if !ok {
			r.skip(&IngestionError{File: file, Line: line, Reason: fmt.Sprintf("invalid correct_answer %q", field(row, "correct_answer"))})
			continue
		}

		q := &models.Question{
			Ref:         models.QuestionRef{SubjectTag: tag, Year: year, ID: id},
			Prompt:      field(row, "question"),
			OptionA:     field(row, "option_a"),
			OptionB:     field(row, "option_b"),
			OptionC:     field(row, "option_c"),
			OptionD:     field(row, "option_d"),
			Correct:     correct,
			Explanation: field(row, "explanation"),
		}

		if reason := r.add(q); reason != "" {
			r.skip(&IngestionError{File: file, Line: line, Reason: reason})
			continue
		}
		loaded++
	}
	return loaded, nil
}

// skip logs a rejected record. Corrupt rows never enter the index.
func (r *Repository) skip(err *IngestionError) {
	log.Printf("WARN: bank: skipping record: %v", err)
}
