package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinLineLength is the minimum normalized line length worth a parse attempt;
// anything shorter carries too little signal to ever form a result.
const MinLineLength = 5

var (
	reTrailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	reRangeSpaces   = regexp.MustCompile(`\s+`)
)

// namePrefixes are leading label words stripped from an extracted test name.
var namePrefixes = []string{"test", "result", "investigation"}

// abbreviations expands well-known shorthand when it is the entire extracted
// name. Whole-name matches only; expanding inside longer names corrupts them.
var abbreviations = map[string]string{
	"hb":   "hemoglobin",
	"hgb":  "hemoglobin",
	"hct":  "hematocrit",
	"pcv":  "hematocrit",
	"tlc":  "total leukocyte count",
	"dlc":  "differential count",
	"plt":  "platelet count",
	"rbs":  "random blood sugar",
	"fbs":  "fasting blood sugar",
	"sgpt": "alt",
	"sgot": "ast",
}

// LineParser splits a cleaned line into the five candidate fields by trying
// each grammar in order. Parse returns nil when no grammar matches or the
// extracted name fails validity; callers always need a fallback.
type LineParser struct {
	norm     *Normalizer
	grammars []grammar
}

// NewLineParser builds a parser over the default grammar list.
func NewLineParser(norm *Normalizer) *LineParser {
	if norm == nil {
		norm = NewNormalizer(nil)
	}
	return &LineParser{norm: norm, grammars: defaultGrammars}
}

// Parse attempts the ordered grammars against the normalized line. The first
// grammar matching the line prefix wins; there is no scoring across
// alternates.
func (p *LineParser) Parse(line string) *TestResult {
	s := p.norm.Normalize(line)
	if utf8.RuneCountInString(s) < MinLineLength {
		return nil
	}

	for _, g := range p.grammars {
		m := g.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		caps := g.captures(m)

		rawName := strings.TrimSpace(caps["name"])
		// validity runs on the raw candidate, before cleanup
		if !IsLikelyTestName(rawName) {
			return nil
		}

		name := cleanTestName(rawName)
		if name == "" {
			return nil
		}

		value := strings.ReplaceAll(caps["value"], ",", ".")
		unit := p.norm.CanonicalUnit(caps["unit"])
		refRange := cleanRange(caps["range"])
		flag := cleanFlag(caps["flag"])

		return &TestResult{
			TestName:       name,
			Value:          value,
			Unit:           unit,
			ReferenceRange: refRange,
			Flag:           flag,
			Confidence:     scoreConfidence(name, value, unit, refRange, flag),
			RawText:        line,
		}
	}
	return nil
}

// Normalizer exposes the parser's normalizer so callers share one rule set.
func (p *LineParser) Normalizer() *Normalizer { return p.norm }

// cleanTestName strips label prefixes, expands whole-name abbreviations and
// drops a trailing parenthetical.
func cleanTestName(name string) string {
	name = strings.TrimSpace(name)
	fields := strings.Fields(name)
	if len(fields) > 1 {
		first := strings.ToLower(strings.TrimSuffix(fields[0], ":"))
		for _, pfx := range namePrefixes {
			if first == pfx {
				fields = fields[1:]
				break
			}
		}
		name = strings.Join(fields, " ")
	}
	name = reTrailingParen.ReplaceAllString(name, "")
	name = strings.TrimSpace(strings.Trim(name, ",.-/ "))
	if exp, ok := abbreviations[strings.ToLower(name)]; ok {
		return exp
	}
	return name
}

func cleanRange(r string) string {
	r = reRangeSpaces.ReplaceAllString(r, "")
	return strings.ReplaceAll(r, ",", ".")
}

func cleanFlag(f string) string {
	if f == "*" {
		return "*"
	}
	return strings.ToUpper(f)
}

// scoreConfidence builds the record confidence compositionally: name+value
// is the base signal, unit/range/flag each add, and a well-known name token
// adds a bonus. Clamped to 1.
func scoreConfidence(name, value, unit, refRange, flag string) float64 {
	var c float64
	if name != "" && value != "" {
		c += 0.4
	}
	if unit != "" {
		c += 0.2
	}
	if refRange != "" {
		c += 0.2
	}
	if flag != "" {
		c += 0.1
	}
	lower := strings.ToLower(name)
	for _, t := range wellKnownTests {
		if strings.Contains(lower, t) {
			c += 0.1
			break
		}
	}
	if c > 1 {
		c = 1
	}
	return c
}
