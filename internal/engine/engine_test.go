package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaks/labreport-extractor/constants"
)

const sampleReport = `CITY HOSPITAL LABORATORY
Patient: John Doe
SODIUM 138.1 135-145 mmol/l
UREA 24.3 H 19-44 mg/dl
HEMOGLOBIN
14.2 g/dl 12.0-16.0
Report validated by Dr X`

func TestExtractFromText(t *testing.T) {
	e := New(Config{})

	results, stats := e.ExtractFromText(sampleReport)
	require.Len(t, results, 3)

	assert.Equal(t, 7, stats.LinesProcessed)
	assert.Equal(t, 3, stats.LinesMatched)

	assert.Equal(t, "sodium", results[0].TestName)
	assert.Equal(t, "138.1", results[0].Value)
	assert.Equal(t, "N", results[0].Flag)

	assert.Equal(t, "urea", results[1].TestName)
	assert.Equal(t, "H", results[1].Flag)
	assert.Equal(t, "mg/dL", results[1].Unit)

	assert.Equal(t, "hemoglobin", results[2].TestName)
	assert.Equal(t, "14.2", results[2].Value)
	assert.Equal(t, "12.0-16.0", results[2].ReferenceRange)
}

func TestExtractFromTextEmpty(t *testing.T) {
	e := New(Config{})

	results, stats := e.ExtractFromText("")
	assert.Empty(t, results)
	assert.Equal(t, 0, stats.LinesProcessed)
	assert.Equal(t, 0, stats.LinesMatched)
}

func TestExtractFromTextDeterministic(t *testing.T) {
	e := New(Config{})

	first, _ := e.ExtractFromText(sampleReport)
	second, _ := e.ExtractFromText(sampleReport)
	assert.Equal(t, first, second)
}

func TestExtractFromFragmentsRowText(t *testing.T) {
	e := New(Config{})

	fragments := []Fragment{
		frag("Hemoglobin", constants.LabelTestName, 10, 100),
		frag("10.2", constants.LabelTestValue, 150, 101),
		frag("L", constants.LabelFlag, 220, 99),
		frag("g/dl", constants.LabelTestUnit, 280, 100),
		frag("12.0-16.0", constants.LabelRefRange, 360, 102),
	}

	results := e.ExtractFromFragments(fragments)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "hemoglobin", res.TestName)
	assert.Equal(t, "10.2", res.Value)
	assert.Equal(t, "L", res.Flag)
	assert.Equal(t, "g/dL", res.Unit)
	assert.Equal(t, "12.0-16.0", res.ReferenceRange)
}

func TestExtractFromFragmentsLabelFallback(t *testing.T) {
	e := New(Config{})

	// the stray separator fragment defeats row-text parsing; the detector's
	// own labels still carry the fields
	fragments := []Fragment{
		frag("WBC COUNT", constants.LabelTestName, 10, 100),
		frag("=", "", 120, 100),
		frag("7.2", constants.LabelTestValue, 150, 101),
		frag("K/ul", constants.LabelTestUnit, 220, 100),
		frag("4.0-11.0", constants.LabelRefRange, 300, 102),
	}

	results := e.ExtractFromFragments(fragments)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "wbc count", res.TestName)
	assert.Equal(t, "7.2", res.Value)
	assert.Equal(t, "K/μL", res.Unit)
	assert.Equal(t, "4.0-11.0", res.ReferenceRange)
	assert.Equal(t, "N", res.Flag)
}

func TestExtractFromFragmentsMultipleRows(t *testing.T) {
	e := New(Config{})

	fragments := []Fragment{
		frag("Sodium", constants.LabelTestName, 10, 100),
		frag("138.1", constants.LabelTestValue, 150, 100),
		frag("135-145", constants.LabelRefRange, 250, 100),
		frag("mmol/l", constants.LabelTestUnit, 380, 100),

		frag("Potassium", constants.LabelTestName, 10, 200),
		frag("5.9", constants.LabelTestValue, 150, 200),
		frag("3.5-5.1", constants.LabelRefRange, 250, 200),
		frag("mmol/l", constants.LabelTestUnit, 380, 200),
	}

	results := e.ExtractFromFragments(fragments)
	require.Len(t, results, 2)

	assert.Equal(t, "sodium", results[0].TestName)
	assert.Equal(t, "N", results[0].Flag)
	assert.Equal(t, "potassium", results[1].TestName)
	assert.Equal(t, "H", results[1].Flag)
}

func TestExtractFromFragmentsEmpty(t *testing.T) {
	e := New(Config{})
	assert.Empty(t, e.ExtractFromFragments(nil))
}
