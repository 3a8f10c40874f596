package ocr

import (
	"regexp"
	"strings"
)

var (
	reRangePat = regexp.MustCompile(`\b\d+(\.\d+)?\s*-\s*\d+(\.\d+)?\b`)
	reUnitPat  = regexp.MustCompile(`\b(mg/dl|g/dl|mmol/l|meq/l|iu/l|u/l|k/ul|m/ul|ng/ml|pg/ml|miu/l|fl|pg)\b|%`)
	reValuePat = regexp.MustCompile(`\b\d+\.\d+\b`)
)

func hasRangePattern(s string) bool { return reRangePat.MatchString(s) }
func hasUnitPattern(s string) bool  { return reUnitPat.MatchString(s) }
func hasValuePattern(s string) bool { return reValuePat.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// very simple: boost if we see common lab-report artifacts
	// (range-ish, unit-ish, decimal-value-ish). Each adds a slice.
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasRangePattern(txtL) {
		score += 0.2
	}
	if hasUnitPattern(txtL) {
		score += 0.15
	}
	if hasValuePattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
