package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredLine(t *testing.T) {
	p := NewLineParser(nil)

	res := p.Parse("SODIUM 138.1 135-145 mmol/l")
	require.NotNil(t, res)
	assert.Equal(t, "SODIUM", res.TestName)
	assert.Equal(t, "138.1", res.Value)
	assert.Equal(t, "mmol/L", res.Unit)
	assert.Equal(t, "135-145", res.ReferenceRange)
	assert.Equal(t, "", res.Flag)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Equal(t, "SODIUM 138.1 135-145 mmol/l", res.RawText)
}

func TestParseExplicitFlag(t *testing.T) {
	p := NewLineParser(nil)

	res := p.Parse("UREA 24.3 H 19-44 mg/dl")
	require.NotNil(t, res)
	assert.Equal(t, "UREA", res.TestName)
	assert.Equal(t, "24.3", res.Value)
	assert.Equal(t, "H", res.Flag)
	assert.Equal(t, "19-44", res.ReferenceRange)
	assert.Equal(t, "mg/dL", res.Unit)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestParseShortLine(t *testing.T) {
	p := NewLineParser(nil)

	assert.Nil(t, p.Parse("Na 5"))
	assert.Nil(t, p.Parse("ab"))
	assert.Nil(t, p.Parse(""))
	assert.Nil(t, p.Parse("   :  "))
}

func TestParseRejectsBoilerplate(t *testing.T) {
	p := NewLineParser(nil)

	assert.Nil(t, p.Parse("Page 2 of 3"))
	assert.Nil(t, p.Parse("Report Date 12.05.2024"))
	assert.Nil(t, p.Parse("UHID 102934"))
}

func TestParseNameCleanup(t *testing.T) {
	p := NewLineParser(nil)

	// whole-name abbreviation expansion
	res := p.Parse("Hb 13.5 g/dl")
	require.NotNil(t, res)
	assert.Equal(t, "hemoglobin", res.TestName)

	// label prefix stripped
	res = p.Parse("TEST GLUCOSE 95 mg/dl 70-110")
	require.NotNil(t, res)
	assert.Equal(t, "GLUCOSE", res.TestName)
	assert.Equal(t, "70-110", res.ReferenceRange)

	// trailing parenthetical dropped
	res = p.Parse("Creatinine (serum) 1.1 mg/dl")
	require.NotNil(t, res)
	assert.Equal(t, "Creatinine", res.TestName)
}

func TestParseCommaDecimal(t *testing.T) {
	p := NewLineParser(nil)

	res := p.Parse("POTASSIUM 4,2 3.5-5.1 mmol/l")
	require.NotNil(t, res)
	assert.Equal(t, "4.2", res.Value)
	assert.Equal(t, "3.5-5.1", res.ReferenceRange)
}

func TestParseNoValue(t *testing.T) {
	p := NewLineParser(nil)

	assert.Nil(t, p.Parse("COMPLETE BLOOD COUNT"))
}

func TestScoreConfidence(t *testing.T) {
	assert.InDelta(t, 0.4, scoreConfidence("obscurin", "1.0", "", "", ""), 1e-9)
	assert.InDelta(t, 0.6, scoreConfidence("obscurin", "1.0", "mg/dL", "", ""), 1e-9)
	assert.InDelta(t, 0.8, scoreConfidence("obscurin", "1.0", "mg/dL", "1-2", ""), 1e-9)
	assert.InDelta(t, 0.9, scoreConfidence("obscurin", "1.0", "mg/dL", "1-2", "H"), 1e-9)
	// well-known name bonus, clamped at 1
	assert.InDelta(t, 1.0, scoreConfidence("glucose", "1.0", "mg/dL", "1-2", "H"), 1e-9)
	// the bonus applies even without a value; grammars never emit that shape
	assert.InDelta(t, 0.1, scoreConfidence("glucose", "", "", "", ""), 1e-9)
}
