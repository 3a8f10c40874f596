package engine

import (
	"strconv"
	"strings"
)

// Abnormality markers that, embedded anywhere in the flag or value string,
// signal out-of-range directly without numeric comparison.
var abnormalMarkers = []string{"*", "H", "L", "↑", "↓"}

// ResolveFlag decides the abnormality flag for a parsed result. An explicit
// flag wins untouched. A comparison prefix on the value implies a direction
// by itself. Otherwise the value is compared numerically against the
// reference range: "H" above, "L" below, "N" within, "" when either side is
// unparseable. Parsing failures never propagate; a wrong flag on garbled OCR
// is worse than no flag.
func ResolveFlag(value, refRange, flag string) string {
	if flag != "" {
		return flag
	}
	if value == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(value, ">"), strings.HasPrefix(value, "≥"):
		return "H"
	case strings.HasPrefix(value, "<"), strings.HasPrefix(value, "≤"):
		return "L"
	}

	val, ok := parseValue(value)
	if !ok || refRange == "" {
		return ""
	}

	r, ok := parseRange(refRange)
	if !ok {
		return ""
	}
	switch {
	case r.belowLow(val):
		return "L"
	case r.aboveHigh(val):
		return "H"
	default:
		return "N"
	}
}

// OutOfRange reports whether a result should be treated as abnormal. An
// embedded marker in the flag or value is an immediate positive signal and
// overrides numeric recomputation, even when the number sits inside the
// range; qualitative ranges resolve by substring containment; values that
// refuse to parse fall back to plain string inequality. With no usable
// signal at all the answer is false.
func OutOfRange(value, refRange, flag string) bool {
	if value == "" || refRange == "" {
		return false
	}

	upperFlag := strings.ToUpper(flag)
	for _, m := range abnormalMarkers {
		if strings.Contains(upperFlag, m) {
			return true
		}
	}
	for _, m := range abnormalMarkers {
		if strings.Contains(value, m) {
			return true
		}
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(value, "*", ""))
	if strings.ContainsAny(cleaned, "<>≤≥") {
		// comparison-prefixed values are usually at detection limits;
		// treated as in range here
		return false
	}

	if qualitative(refRange) {
		return !strings.Contains(strings.ToLower(refRange), strings.ToLower(cleaned))
	}

	val, ok := parseValue(cleaned)
	if !ok {
		// last-resort signal: a value that does not even echo the range text
		return !strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(refRange))
	}

	r, ok := parseRange(refRange)
	if !ok {
		return false
	}
	return r.belowLow(val) || r.aboveHigh(val)
}

// refRangeBounds is a parsed reference range. A one-sided range leaves the
// unused bound disabled.
type refRangeBounds struct {
	low, high       float64
	hasLow, hasHigh bool
}

func (r refRangeBounds) belowLow(v float64) bool  { return r.hasLow && v < r.low }
func (r refRangeBounds) aboveHigh(v float64) bool { return r.hasHigh && v > r.high }

// parseValue parses a numeric value string, tolerating comparison prefixes,
// embedded markers and comma decimals.
func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "<>≤≥")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseRange parses "low-high" with hyphen, en-dash, space or "to" as the
// separator, plus one-sided "<limit" / ">limit" forms.
func parseRange(s string) (refRangeBounds, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")
	s = strings.ReplaceAll(s, "−", "-")

	switch {
	case strings.HasPrefix(s, "<"), strings.HasPrefix(s, "≤"):
		if limit, ok := parseValue(s); ok {
			return refRangeBounds{high: limit, hasHigh: true}, true
		}
		return refRangeBounds{}, false
	case strings.HasPrefix(s, ">"), strings.HasPrefix(s, "≥"):
		if limit, ok := parseValue(s); ok {
			return refRangeBounds{low: limit, hasLow: true}, true
		}
		return refRangeBounds{}, false
	}

	var parts []string
	switch {
	case strings.Contains(s, "-"):
		parts = strings.SplitN(s, "-", 2)
	case strings.Contains(strings.ToLower(s), "to"):
		parts = strings.SplitN(strings.ToLower(s), "to", 2)
	default:
		parts = strings.Fields(s)
	}
	if len(parts) != 2 {
		return refRangeBounds{}, false
	}

	low, okLow := parseValue(parts[0])
	high, okHigh := parseValue(parts[1])
	if !okLow || !okHigh {
		return refRangeBounds{}, false
	}
	return refRangeBounds{low: low, high: high, hasLow: true, hasHigh: true}, true
}

// qualitative reports whether a range is textual rather than numeric
// ("negative", "non-reactive", "normal").
func qualitative(refRange string) bool {
	lower := strings.ToLower(refRange)
	for _, w := range []string{"negative", "non-reactive", "normal"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
