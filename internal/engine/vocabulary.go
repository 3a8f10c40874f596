package engine

import (
	"database/sql"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

//go:embed test_terms.csv
var defaultTermsCSV string

// Vocabulary is the fixed set of canonical test names, loaded once at
// startup and never mutated afterwards. Safe for concurrent readers.
type Vocabulary struct {
	terms map[string]struct{}
	list  []string
}

// NewVocabulary builds a vocabulary from raw names. Each name is lowercased
// and punctuation-stripped; empties and duplicates are dropped.
func NewVocabulary(names []string) *Vocabulary {
	v := &Vocabulary{terms: make(map[string]struct{}, len(names))}
	for _, n := range names {
		clean := preprocessName(n)
		if clean == "" {
			continue
		}
		if _, dup := v.terms[clean]; dup {
			continue
		}
		v.terms[clean] = struct{}{}
		v.list = append(v.list, clean)
	}
	return v
}

// Len reports the number of canonical names.
func (v *Vocabulary) Len() int { return len(v.list) }

// Contains reports exact membership of the preprocessed candidate.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.terms[preprocessName(name)]
	return ok
}

var (
	defaultVocabOnce sync.Once
	defaultVocabVal  *Vocabulary
)

// DefaultVocabulary returns the embedded test-name vocabulary.
func DefaultVocabulary() *Vocabulary {
	defaultVocabOnce.Do(func() {
		v, err := readVocabularyCSV(strings.NewReader(defaultTermsCSV))
		if err != nil {
			panic(fmt.Sprintf("engine: embedded vocabulary invalid: %v", err))
		}
		defaultVocabVal = v
	})
	return defaultVocabVal
}

// LoadVocabularyCSV loads canonical names from a CSV file with a test_name
// column (first column when no header matches).
func LoadVocabularyCSV(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: open: %w", err)
	}
	defer f.Close()
	v, err := readVocabularyCSV(f)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %s: %w", path, err)
	}
	return v, nil
}

func readVocabularyCSV(r io.Reader) (*Vocabulary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "test_name") {
			col = i
			break
		}
	}

	var names []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col < len(rec) {
			names = append(names, rec[col])
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no test names found")
	}
	return NewVocabulary(names), nil
}

// LoadVocabularySQLite loads canonical names from a sqlite database holding
// a test_terms(test_name) table.
func LoadVocabularySQLite(dsn string) (*Vocabulary, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT test_name FROM test_terms`)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: query test_terms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("vocabulary: scan: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vocabulary: rows: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("vocabulary: test_terms is empty")
	}
	return NewVocabulary(names), nil
}

var reNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// preprocessName lowercases, strips punctuation and collapses spaces so
// candidates and vocabulary entries compare in the same shape.
func preprocessName(name string) string {
	name = reNonAlnum.ReplaceAllString(name, "")
	name = strings.ToLower(strings.TrimSpace(name))
	return reMultiSpace.ReplaceAllString(name, " ")
}

// boilerplateSubstrings mark document furniture: any candidate containing one
// is header/footer text that happens to precede a number, not a test name.
var boilerplateSubstrings = []string{
	"result date", "parameters", "test result", "admitted under",
	"patient", "bed no", "report date", "order no",
	"sample collected", "validated by", "approved by",
	"laboratory", "comprehensive", "hospital", "investigation",
}

// boilerplateWords are short furniture tokens matched as whole words only; a
// substring test on these would reject real names ("lipase" contains "ip").
var boilerplateWords = map[string]struct{}{
	"dr": {}, "ip": {}, "uhid": {}, "ward": {}, "page": {}, "date": {},
	"report": {}, "final": {}, "panel": {}, "results": {}, "mims": {},
}

// unitOnlyTokens are bare unit spellings that a loose grammar can capture as
// a "name".
var unitOnlyTokens = map[string]struct{}{
	"ul": {}, "ml": {}, "dl": {}, "l": {}, "mg": {}, "g": {},
	"ng": {}, "pg": {}, "mcg": {}, "kg": {}, "lbs": {},
}

// resultDescriptors are outcome words, not test names.
var resultDescriptors = map[string]struct{}{
	"normal": {}, "abnormal": {}, "high": {}, "low": {},
	"positive": {}, "negative": {},
}

// IsLikelyTestName rejects candidates that resemble document boilerplate or
// carry no name signal at all. It runs before any vocabulary matching.
func IsLikelyTestName(name string) bool {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 2 {
		return false
	}
	if !strings.ContainsFunc(name, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) {
		return false
	}

	lower := strings.ToLower(name)
	for _, phrase := range boilerplateSubstrings {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,:-")
		if _, ok := boilerplateWords[w]; ok {
			return false
		}
	}
	if _, ok := unitOnlyTokens[lower]; ok {
		return false
	}
	if _, ok := resultDescriptors[lower]; ok {
		return false
	}
	return true
}
