package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSplitLine(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	results := a.Extract([]string{
		"HEMOGLOBIN",
		"14.2 g/dl 12.0-16.0",
	})
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "hemoglobin", res.TestName)
	assert.Equal(t, "14.2", res.Value)
	assert.Equal(t, "g/dL", res.Unit)
	assert.Equal(t, "12.0-16.0", res.ReferenceRange)
	assert.Equal(t, "N", res.Flag)
}

func TestExtractSelfContainedLines(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	results := a.Extract([]string{
		"SODIUM 138.1 135-145 mmol/l",
		"UREA 24.3 H 19-44 mg/dl",
	})
	require.Len(t, results, 2)

	assert.Equal(t, "sodium", results[0].TestName)
	assert.Equal(t, "N", results[0].Flag)
	assert.Equal(t, "urea", results[1].TestName)
	assert.Equal(t, "H", results[1].Flag)
}

func TestExtractSkipsNoise(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	results := a.Extract([]string{
		"CITY HOSPITAL LABORATORY",
		"Patient: John Doe",
		"Report validated by Dr X",
	})
	assert.Empty(t, results)
}

func TestExtractLookahead(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	// the separator defeats every grammar shape, so the name-then-lookahead
	// fallback has to assemble the result
	results := a.Extract([]string{
		"POTASSIUM",
		"= 4.5 mmol/l",
	})
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "potassium", res.TestName)
	assert.Equal(t, "4.5", res.Value)
	assert.Equal(t, "mmol/L", res.Unit)
	assert.Equal(t, "", res.ReferenceRange)
}

func TestExtractLookaheadNameOnly(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	// no value anywhere in the scanned lines; the recognized name still
	// produces a record with the remaining fields empty
	results := a.Extract([]string{
		"HEMOGLOBIN",
		"method photometric determination",
	})
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "hemoglobin", res.TestName)
	assert.Equal(t, "", res.Value)
	assert.Equal(t, "", res.Unit)
	assert.Equal(t, "", res.ReferenceRange)
	assert.Equal(t, "", res.Flag)
}

func TestExtractLookaheadNameAtDocumentEnd(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	results := a.Extract([]string{"POTASSIUM"})
	require.Len(t, results, 1)
	assert.Equal(t, "potassium", results[0].TestName)
	assert.Equal(t, "", results[0].Value)
}

func TestExtractDigitBearingName(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	// HBA1C carries a digit but is a vocabulary term, so the lookahead
	// accepts it as a bare name line
	results := a.Extract([]string{
		"HBA1C",
		"5.9 %",
	})
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "hba1c", res.TestName)
	assert.Equal(t, "5.9", res.Value)
	assert.Equal(t, "%", res.Unit)
}

func TestExtractDigitBearingNameInline(t *testing.T) {
	a := NewAggregator(nil, nil, 0)

	// the digit inside the name must never be read as the value; this
	// layout defeats the line grammars, so no record beats a wrong one
	results := a.Extract([]string{"HBA1C 5.9 %"})
	for _, r := range results {
		assert.NotEqual(t, "1", r.Value)
	}
	assert.Empty(t, results)
}

func TestExtractUnknownNameDiscarded(t *testing.T) {
	a := NewAggregator(nil, NewVocabulary([]string{"hemoglobin"}), 0.9)

	// parses structurally but the name resolves to nothing at this threshold
	results := a.Extract([]string{"FLUXOMETRY 12.3 mg/dl"})
	assert.Empty(t, results)
}

func TestExtractEmpty(t *testing.T) {
	a := NewAggregator(nil, nil, 0)
	assert.Empty(t, a.Extract(nil))
	assert.Empty(t, a.Extract([]string{"", "   "}))
}

func TestConsumedLines(t *testing.T) {
	assert.Equal(t, 1, consumedLines("a b c", 3))
	assert.Equal(t, 2, consumedLines("a b c d e f g h i j k l", 3)) // 11 spaces
	assert.Equal(t, 1, consumedLines("a b c d e f g h i j k l", 1)) // capped at window
	assert.Equal(t, 1, consumedLines("", 3))
}
