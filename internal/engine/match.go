package engine

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultMatchThreshold is the minimum edit-distance similarity for an
// approximate vocabulary match.
const DefaultMatchThreshold = 0.4

// tokenSetCutoff is the 0-100 score a token-overlap match must exceed.
const tokenSetCutoff = 50

// Match resolves a raw extracted test name to its canonical vocabulary form.
// Resolution order: exact membership, then closest edit-distance match at or
// above threshold, then (for candidates longer than 3 characters) token-set
// overlap. The token stage exists because OCR word-order and merge errors
// defeat straight edit distance while token overlap survives them.
//
// An exact match wins regardless of threshold. Returns ("", false) when all
// three stages fail.
func (v *Vocabulary) Match(candidate string, threshold float64) (string, bool) {
	if len(strings.TrimSpace(candidate)) < 2 {
		return "", false
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	clean := preprocessName(candidate)
	if clean == "" {
		return "", false
	}

	if _, ok := v.terms[clean]; ok {
		return clean, true
	}

	if best, sim := v.closestBySimilarity(clean); sim >= threshold {
		return best, true
	}

	if len(clean) > 3 {
		if best, score := v.closestByTokenSet(clean); score > tokenSetCutoff {
			return best, true
		}
	}
	return "", false
}

// closestBySimilarity scans the vocabulary for the entry with the highest
// normalized edit-distance similarity.
func (v *Vocabulary) closestBySimilarity(clean string) (string, float64) {
	var best string
	var bestSim float64
	for _, term := range v.list {
		if sim := similarity(clean, term); sim > bestSim {
			best, bestSim = term, sim
		}
	}
	return best, bestSim
}

// closestByTokenSet scans for the best token-set ratio on a 0-100 scale.
func (v *Vocabulary) closestByTokenSet(clean string) (string, float64) {
	var best string
	var bestScore float64
	for _, term := range v.list {
		if score := tokenSetRatio(clean, term); score > bestScore {
			best, bestScore = term, score
		}
	}
	return best, bestScore
}

// similarity is 1 - dist/maxLen, in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// tokenSetRatio compares the sorted token sets of a and b, scoring the
// intersection against each side's remainder and taking the best pairing.
// Word order and duplicated tokens stop mattering, which is exactly what OCR
// line merging breaks.
func tokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(inter, " ")
	sa := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	sb := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	score := similarity(sa, sb)
	if base != "" {
		if s := similarity(base, sa); s > score {
			score = s
		}
		if s := similarity(base, sb); s > score {
			score = s
		}
	}
	return score * 100
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}
