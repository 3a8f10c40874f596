package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxWindow is the largest number of consecutive lines joined into one parse
// attempt. OCR splits a single visual row across at most a handful of text
// lines; three covers what real reports produce.
const maxWindow = 3

var (
	reLooseValue = regexp.MustCompile(`[<>≤≥]?\d+(?:[.,]\d+)?`)
	reLooseRange = regexp.MustCompile(`[<>≤≥]?\d+(?:[.,]\d+)?\s*-\s*[<>≤≥]?\d+(?:[.,]\d+)?|[<>≤≥]\d+(?:[.,]\d+)?`)
	reLooseUnit  = regexp.MustCompile(`(?:mg/dL|g/dL|mmol/L|μmol/L|mEq/L|IU/L|U/L|K/μL|M/μL|ng/mL|pg/mL|μg/dL|mIU/L|fL|pg|%)`)
	reLooseFlag  = regexp.MustCompile(`(?:^|\s)([HL*])(?:\s|$)`)
)

// Aggregator recovers results whose fields OCR scattered across adjacent
// text lines. It slides over the lines trying progressively wider join
// windows, requiring a vocabulary match on the extracted name before a
// window is accepted, and falls back to a name-then-lookahead scan when no
// window parses.
type Aggregator struct {
	parser    *LineParser
	vocab     *Vocabulary
	threshold float64
}

// NewAggregator wires a parser and vocabulary; nil arguments get defaults.
func NewAggregator(parser *LineParser, vocab *Vocabulary, threshold float64) *Aggregator {
	if parser == nil {
		parser = NewLineParser(nil)
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Aggregator{parser: parser, vocab: vocab, threshold: threshold}
}

// Extract walks the lines and returns every result found, in document order.
// Window attempts go shortest-first so a self-contained line is never
// greedily merged with its neighbor. A successful window consumes a number
// of lines estimated from the whitespace density of the matched text; the
// remainder is re-offered to the next iteration.
func (a *Aggregator) Extract(lines []string) []TestResult {
	var results []TestResult

	for i := 0; i < len(lines); {
		res, consumed := a.tryWindows(lines, i)
		if res != nil {
			results = append(results, *res)
			i += consumed
			continue
		}

		if res := a.lookahead(lines, i); res != nil {
			results = append(results, *res)
			i += 2
			continue
		}
		i++
	}
	return results
}

// tryWindows offers the 1-, 2- and 3-line joins at position i to the parser.
// A parse only counts when the extracted name also resolves against the
// vocabulary; otherwise the next window gets its chance.
func (a *Aggregator) tryWindows(lines []string, i int) (*TestResult, int) {
	for w := 1; w <= maxWindow && i+w <= len(lines); w++ {
		joined := joinWindow(lines[i : i+w])
		res := a.parser.Parse(joined)
		if res == nil {
			continue
		}
		canonical, ok := a.vocab.Match(res.TestName, a.threshold)
		if !ok {
			continue
		}
		res.TestName = canonical
		if res.Flag == "" {
			res.Flag = ResolveFlag(res.Value, res.ReferenceRange, "")
		}
		res.RawText = joined
		return res, consumedLines(joined, w)
	}
	return nil, 0
}

// lookahead handles the layout where a line holds only the test name and the
// value, unit and range trail on the next one or two lines. First occurrence
// of each field wins across the scanned lines, nothing is overwritten. Once
// the name resolves, a record is emitted even when the scan finds no value:
// a recognized name is worth reporting on its own.
func (a *Aggregator) lookahead(lines []string, i int) *TestResult {
	name := strings.TrimSpace(a.parser.norm.Normalize(lines[i]))
	if utf8.RuneCountInString(name) < 2 || !IsLikelyTestName(name) {
		return nil
	}
	// digit-bearing lines are value rows, not names, unless the whole line
	// is itself a vocabulary term (HBA1C, T3, CO2)
	if containsDigit(name) && !a.vocab.Contains(name) {
		return nil
	}
	canonical, ok := a.vocab.Match(cleanTestName(name), a.threshold)
	if !ok {
		return nil
	}

	var value, unit, refRange, flag string
	for j := i + 1; j <= i+2 && j < len(lines); j++ {
		s := a.parser.norm.Normalize(lines[j])
		if refRange == "" {
			if m := reLooseRange.FindString(s); m != "" {
				refRange = cleanRange(m)
				s = strings.Replace(s, m, " ", 1)
			}
		}
		if value == "" {
			if m := reLooseValue.FindString(s); m != "" {
				value = strings.ReplaceAll(m, ",", ".")
				s = strings.Replace(s, m, " ", 1)
			}
		}
		if unit == "" {
			if m := reLooseUnit.FindString(s); m != "" {
				unit = m
			}
		}
		if flag == "" {
			if m := reLooseFlag.FindStringSubmatch(s); m != nil {
				flag = cleanFlag(m[1])
			}
		}
	}
	if flag == "" {
		flag = ResolveFlag(value, refRange, "")
	}
	end := i + maxWindow
	if end > len(lines) {
		end = len(lines)
	}
	return &TestResult{
		TestName:       canonical,
		Value:          value,
		Unit:           unit,
		ReferenceRange: refRange,
		Flag:           flag,
		Confidence:     scoreConfidence(canonical, value, unit, refRange, flag),
		RawText:        joinWindow(lines[i:end]),
	}
}

// consumedLines estimates how many of the window's lines the match actually
// used, from the whitespace density of the joined text. Dense matches came
// from one line; sparse ones spanned the window. Monotonic in window size.
func consumedLines(matched string, window int) int {
	n := strings.Count(matched, " ")/10 + 1
	if n < 1 {
		n = 1
	}
	if n > window {
		n = window
	}
	return n
}

func joinWindow(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func containsDigit(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
}
