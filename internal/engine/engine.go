package engine

import (
	"strings"

	"github.com/adityaks/labreport-extractor/constants"
)

// Config carries the engine's tuning knobs. The zero value selects the
// embedded defaults everywhere.
type Config struct {
	// Rules overrides the embedded normalization rule set.
	Rules *Rules
	// Vocabulary overrides the embedded canonical test names.
	Vocabulary *Vocabulary
	// MatchThreshold is the minimum similarity for approximate name matching.
	MatchThreshold float64
	// RowTolerance is the vertical clustering tolerance for fragment rows.
	RowTolerance float64
}

// Stats summarizes one extraction pass, for logging and response metadata.
type Stats struct {
	LinesProcessed int
	LinesMatched   int
}

// Engine is the extraction pipeline: normalization, row assembly, line
// parsing, vocabulary matching and flag resolution behind two entry points.
// It holds only immutable configuration, so one Engine serves concurrent
// requests; given identical input it produces identical output.
type Engine struct {
	parser       *LineParser
	aggregator   *Aggregator
	vocab        *Vocabulary
	threshold    float64
	rowTolerance float64
}

// New builds an engine from cfg, filling unset fields with defaults.
func New(cfg Config) *Engine {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	vocab := cfg.Vocabulary
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	threshold := cfg.MatchThreshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	rowTolerance := cfg.RowTolerance
	if rowTolerance <= 0 {
		rowTolerance = DefaultRowTolerance
	}

	parser := NewLineParser(NewNormalizer(rules))
	return &Engine{
		parser:       parser,
		aggregator:   NewAggregator(parser, vocab, threshold),
		vocab:        vocab,
		threshold:    threshold,
		rowTolerance: rowTolerance,
	}
}

// ExtractFromText runs the free-text path: split into lines, then the
// windowed aggregator. Unparseable lines are skipped, never errors; an input
// with no recognizable results returns an empty slice.
func (e *Engine) ExtractFromText(raw string) ([]TestResult, Stats) {
	lines := splitLines(raw)
	results := e.aggregator.Extract(lines)
	return results, Stats{LinesProcessed: len(lines), LinesMatched: len(results)}
}

// ExtractFromFragments runs the spatial path: cluster labeled fragments into
// visual rows, parse each row's joined text, and fall back to the detector's
// own field labels when the joined text defeats every grammar.
func (e *Engine) ExtractFromFragments(fragments []Fragment) []TestResult {
	rows := AssembleRows(fragments, e.rowTolerance)

	var results []TestResult
	for _, row := range rows {
		if res := e.parseRowText(row); res != nil {
			results = append(results, *res)
			continue
		}
		if res := e.resultFromLabels(row); res != nil {
			results = append(results, *res)
		}
	}
	return results
}

func (e *Engine) parseRowText(row Row) *TestResult {
	text := row.Text()
	res := e.parser.Parse(text)
	if res == nil {
		return nil
	}
	canonical, ok := e.vocab.Match(res.TestName, e.threshold)
	if !ok {
		return nil
	}
	res.TestName = canonical
	if res.Flag == "" {
		res.Flag = ResolveFlag(res.Value, res.ReferenceRange, "")
	}
	return res
}

// resultFromLabels trusts the region detector's field labels directly. The
// vocabulary still canonicalizes the name when it can, but a miss keeps the
// cleaned detector text: an explicitly labeled name region outranks fuzzy
// matching.
func (e *Engine) resultFromLabels(row Row) *TestResult {
	fields := row.Fields()
	name := cleanTestName(fields[constants.LabelTestName])
	rawValue := strings.TrimSpace(fields[constants.LabelTestValue])
	if name == "" || rawValue == "" {
		return nil
	}
	if !IsLikelyTestName(name) {
		return nil
	}
	if canonical, ok := e.vocab.Match(name, e.threshold); ok {
		name = canonical
	}

	norm := e.parser.Normalizer()
	value := strings.ReplaceAll(norm.Normalize(rawValue), ",", ".")
	unit := norm.CanonicalUnit(strings.TrimSpace(fields[constants.LabelTestUnit]))
	refRange := cleanRange(norm.Normalize(fields[constants.LabelRefRange]))
	flag := cleanFlag(strings.TrimSpace(fields[constants.LabelFlag]))
	if flag == "" {
		flag = ResolveFlag(value, refRange, "")
	}

	return &TestResult{
		TestName:       name,
		Value:          value,
		Unit:           unit,
		ReferenceRange: refRange,
		Flag:           flag,
		Confidence:     scoreConfidence(name, value, unit, refRange, flag),
		RawText:        row.Text(),
	}
}

// splitLines splits raw OCR text on newlines, dropping blank lines.
func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
