// Package format converts engine results into the externally visible record
// shape. The JSON field names are a published contract consumed by report
// renderers; they never change with internal refactors.
package format

import (
	"strings"

	"github.com/adityaks/labreport-extractor/internal/engine"
)

// Record is one extracted lab test in the external response shape.
type Record struct {
	TestName       string `json:"test_name"`
	Value          string `json:"test_value"`
	ReferenceRange string `json:"bio_reference_range"`
	Unit           string `json:"test_unit"`
	OutOfRange     bool   `json:"lab_test_out_of_range"`
}

// FromResult maps an engine result into the external shape. Abnormality
// markers embedded in the value still count toward the out-of-range decision
// but are stripped from the published value.
func FromResult(r engine.TestResult) Record {
	return Record{
		TestName:       r.TestName,
		Value:          strings.TrimSpace(strings.ReplaceAll(r.Value, "*", "")),
		ReferenceRange: r.ReferenceRange,
		Unit:           r.Unit,
		OutOfRange:     engine.OutOfRange(r.Value, r.ReferenceRange, r.Flag),
	}
}

// FromResults maps a result slice, preserving order. A nil or empty input
// yields an empty (non-nil) slice so the JSON encoding is always an array.
func FromResults(results []engine.TestResult) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, FromResult(r))
	}
	return records
}
