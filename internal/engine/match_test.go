package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchExactRegardlessOfThreshold(t *testing.T) {
	v := DefaultVocabulary()

	for _, threshold := range []float64{0.05, 0.4, 0.99, 1.0} {
		got, ok := v.Match("Hemoglobin", threshold)
		require.True(t, ok, "threshold %v", threshold)
		assert.Equal(t, "hemoglobin", got)
	}

	// punctuation and case stripped before comparison
	got, ok := v.Match("T.S.H", 0.99)
	require.True(t, ok)
	assert.Equal(t, "tsh", got)
}

func TestMatchApproximate(t *testing.T) {
	v := DefaultVocabulary()

	got, ok := v.Match("Hemglobin", 0.4)
	require.True(t, ok)
	assert.Equal(t, "hemoglobin", got)

	got, ok = v.Match("Creatinne", 0.4)
	require.True(t, ok)
	assert.Equal(t, "creatinine", got)
}

func TestMatchTokenOverlap(t *testing.T) {
	v := DefaultVocabulary()

	// word order scrambled by OCR line merging; edit distance alone fails at
	// a high threshold but token overlap recovers it
	got, ok := v.Match("count platelet", 0.95)
	require.True(t, ok)
	assert.Equal(t, "platelet count", got)
}

func TestMatchRejects(t *testing.T) {
	v := DefaultVocabulary()

	_, ok := v.Match("zzzz", 0.9)
	assert.False(t, ok)

	_, ok = v.Match("x", 0.1)
	assert.False(t, ok)

	_, ok = v.Match("   ", 0.1)
	assert.False(t, ok)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("sodium", "sodium"), 1e-9)
	assert.InDelta(t, 0.9, similarity("hemglobin", "hemoglobin"), 1e-9)
	assert.InDelta(t, 1.0, similarity("", ""), 1e-9) // equal inputs, even empty
	assert.GreaterOrEqual(t, similarity("abc", "xyz"), 0.0)
}

func TestTokenSetRatio(t *testing.T) {
	assert.InDelta(t, 100, tokenSetRatio("platelet count", "count platelet"), 1e-9)
	assert.Greater(t, tokenSetRatio("total cholesterol serum", "total cholesterol"), 50.0)
	assert.Equal(t, 0.0, tokenSetRatio("", "sodium"))
}
