package engine

import "regexp"

// A grammar is one fixed structural shape a result line can take. Grammars
// are tried in order, first match wins; each one is independently testable
// and the list can grow without touching the parser.
type grammar struct {
	name string
	re   *regexp.Regexp
}

// Shared sub-expressions. Lines reach these after normalization, so range
// separators are already a bare hyphen and units are single tokens.
const (
	subName  = `(?P<name>[A-Za-z][A-Za-z ,.()\-/]*?)`
	subValue = `(?P<value>[<>≤≥]?\d+(?:[.,]\d+)?)`
	subFlag  = `(?P<flag>[HLN*])`
	subUnit  = `(?P<unit>[A-Za-zμ%][A-Za-z0-9μ%/^°]*)`
	// two-sided range only; used where a range precedes the unit
	subRange2 = `(?P<range>[<>≤≥]?\d+(?:[.,]\d+)?-[<>≤≥]?\d+(?:[.,]\d+)?)`
	// two-sided or one-sided comparison range; used in trailing position
	subRange = `(?P<range>[<>≤≥]?\d+(?:[.,]\d+)?-[<>≤≥]?\d+(?:[.,]\d+)?|[<>≤≥]\d+(?:[.,]\d+)?)`
)

// defaultGrammars is ordered most-specific-first. The first grammar whose
// shape matches the prefix of the line wins; no scoring across alternates.
var defaultGrammars = []grammar{
	{
		name: "name-value-flag-range-unit",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `\s*` + subFlag + `\s+` + subRange2 + `\s+` + subUnit + `(?:\s|$)`),
	},
	{
		name: "name-value-flag-unit-range",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `\s*` + subFlag + `\s+` + subUnit + `\s+` + subRange + `(?:\s|$)`),
	},
	{
		name: "name-value-unit-range",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `\s+` + subUnit + `\s+` + subRange + `(?:\s|$)`),
	},
	{
		name: "name-value-range-unit",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `\s+` + subRange2 + `\s+` + subUnit + `(?:\s|$)`),
	},
	{
		name: "name-value-unit-parenrange",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `\s+` + subUnit + `\s*\((?P<range>[^)]+)\)`),
	},
	{
		name: "name-value-unit",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `\s+` + subUnit + `(?:\s|$)`),
	},
	{
		name: "name-value",
		re:   regexp.MustCompile(`(?i)^` + subName + `\s+` + subValue + `(?:\s|$)`),
	},
}

// captures extracts named groups from a match into a map.
func (g grammar) captures(m []string) map[string]string {
	out := make(map[string]string, 5)
	for i, n := range g.re.SubexpNames() {
		if n == "" || i >= len(m) {
			continue
		}
		if m[i] != "" {
			out[n] = m[i]
		}
	}
	return out
}
