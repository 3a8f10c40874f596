package engine

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reNoiseChars  = regexp.MustCompile(`[|{}\[\]«»]`)
	reColonNoise  = regexp.MustCompile(`[:;]`)
	reMultiSpace  = regexp.MustCompile(`\s+`)
	reUnicodeDash = regexp.MustCompile(`(\d)\s*[–—−]\s*(\d)`)
	reHyphenGap   = regexp.MustCompile(`(\d)\s*-\s*(\d)`)
	reWordTo      = regexp.MustCompile(`(?i)(\d)\s+to\s+(\d)`)
	reDigitAlpha  = regexp.MustCompile(`(\d)([A-Za-zμ%])`)
	reAlphaDigit  = regexp.MustCompile(`([A-Za-z])(\d)`)
)

// Normalizer rewrites raw OCR text using the prioritized substitution tables
// plus context-sensitive character fixes. Pure and deterministic; empty input
// yields empty output.
type Normalizer struct {
	rules *Rules
}

// NewNormalizer builds a Normalizer around the given tables; nil means the
// embedded defaults.
func NewNormalizer(rules *Rules) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Normalize runs the fixed cleanup pipeline. Phrase substitutions run before
// character-level digit fixes: a garbled multi-character artifact has to be
// phrase-matched while its characters are still intact.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	// 1. fold unicode, strip bracket/pipe noise, collapse whitespace
	s := norm.NFKC.String(text)
	s = reNoiseChars.ReplaceAllString(s, "")
	s = reColonNoise.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// 2. literal phrase table, in table order
	for _, p := range n.rules.Phrases {
		s = strings.ReplaceAll(s, p.From, p.To)
	}

	// 3. context-sensitive digit-like letter fixes
	s = fixConfusableRunes(s)

	// 4. unit spelling canonicalization, token-wise
	s = n.canonicalizeUnitTokens(s)

	// 5. range separators to a single bare hyphen
	s = reUnicodeDash.ReplaceAllString(s, "$1-$2")
	s = reHyphenGap.ReplaceAllString(s, "$1-$2")
	s = reWordTo.ReplaceAllString(s, "$1-$2")

	// 6. undo merged number/unit runs, leaving digit-bearing names whole
	s = splitMergedTokens(s)

	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// digitNameTokens are vocabulary names that legitimately mix letters and
// digits; the number/unit split must leave them whole or the digit gets read
// as a value.
var digitNameTokens = map[string]struct{}{
	"hba1c": {}, "co2": {}, "t3": {}, "t4": {}, "ft3": {}, "ft4": {}, "b12": {},
}

// splitMergedTokens separates digit/letter runs token-wise, skipping tokens
// that are themselves test names.
func splitMergedTokens(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if _, ok := digitNameTokens[strings.ToLower(f)]; ok {
			continue
		}
		f = reDigitAlpha.ReplaceAllString(f, "$1 $2")
		fields[i] = reAlphaDigit.ReplaceAllString(f, "$1 $2")
	}
	return strings.Join(fields, " ")
}

// CanonicalUnit exposes the unit table for field-level cleanup after parsing,
// for units that only become separate tokens once a grammar has split them out.
func (n *Normalizer) CanonicalUnit(tok string) string {
	return n.rules.CanonicalUnit(tok)
}

// confusable maps digit-shaped letters to the digit OCR meant.
var confusable = map[rune]rune{
	'O': '0',
	'o': '0',
	'I': '1',
	'l': '1',
	'S': '5',
}

// fixConfusableRunes rewrites O/I/l/S to digits only when a neighboring rune
// is a digit, or when the rune stands alone between spaces. Letters inside
// alphabetic tokens are never touched.
func fixConfusableRunes(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	copy(out, runes)

	for i, r := range runes {
		d, ok := confusable[r]
		if !ok {
			continue
		}
		var prev, next rune
		if i > 0 {
			prev = runes[i-1]
		}
		if i < len(runes)-1 {
			next = runes[i+1]
		}
		if unicode.IsLetter(prev) || unicode.IsLetter(next) {
			continue // alphabetic context
		}
		adjacentDigit := unicode.IsDigit(prev) || unicode.IsDigit(next)
		standalone := (prev == 0 || prev == ' ') && (next == 0 || next == ' ')
		// 'S' only flips next to digits; a lone "S" is usually a word fragment.
		if r == 'S' && !adjacentDigit {
			continue
		}
		if adjacentDigit || standalone {
			out[i] = d
		}
	}
	return string(out)
}

// canonicalizeUnitTokens rewrites each whitespace-delimited token through the
// unit table.
func (n *Normalizer) canonicalizeUnitTokens(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = n.rules.CanonicalUnit(f)
	}
	return strings.Join(fields, " ")
}
