package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaks/labreport-extractor/constants"
)

func frag(text string, label constants.FieldLabel, x, y float64) Fragment {
	return Fragment{
		Text:  text,
		Label: label,
		Box:   Box{X1: x, Y1: y, X2: x + 50, Y2: y + 20},
	}
}

func TestAssembleRowsClustering(t *testing.T) {
	fragments := []Fragment{
		frag("12.0-16.0", constants.LabelRefRange, 400, 102),
		frag("Hemoglobin", constants.LabelTestName, 10, 100),
		frag("14.2", constants.LabelTestValue, 200, 105),
		frag("Sodium", constants.LabelTestName, 10, 180),
		frag("138.1", constants.LabelTestValue, 200, 181),
	}

	rows := AssembleRows(fragments, 20)
	require.Len(t, rows, 2)

	assert.Equal(t, "Hemoglobin 14.2 12.0-16.0", rows[0].Text())
	assert.Equal(t, "Sodium 138.1", rows[1].Text())
}

func TestAssembleRowsPartitionInvariant(t *testing.T) {
	fragments := []Fragment{
		frag("a", "", 10, 10),
		frag("b", "", 20, 12),
		frag("c", "", 30, 300),
		frag("d", "", 40, 301),
		frag("e", "", 50, 600),
		frag("f", "", 60, 15),
	}

	rows := AssembleRows(fragments, 20)

	seen := map[string]int{}
	total := 0
	for _, row := range rows {
		for _, f := range row.Fragments {
			seen[f.Text]++
			total++
		}
	}
	assert.Equal(t, len(fragments), total)
	for _, f := range fragments {
		assert.Equal(t, 1, seen[f.Text], "fragment %q must appear exactly once", f.Text)
	}
}

func TestAssembleRowsOrdering(t *testing.T) {
	fragments := []Fragment{
		frag("right", "", 300, 50),
		frag("left", "", 10, 52),
		frag("middle", "", 150, 48),
	}

	rows := AssembleRows(fragments, 20)
	require.Len(t, rows, 1)

	for i := 1; i < len(rows[0].Fragments); i++ {
		assert.LessOrEqual(t, rows[0].Fragments[i-1].Box.X1, rows[0].Fragments[i].Box.X1)
	}
	assert.Equal(t, "left middle right", rows[0].Text())
}

func TestAssembleRowsEmpty(t *testing.T) {
	assert.Nil(t, AssembleRows(nil, 20))
}

func TestRowFieldsFirstOccurrenceWins(t *testing.T) {
	row := Row{Fragments: []Fragment{
		frag("Glucose", constants.LabelTestName, 10, 10),
		frag("95", constants.LabelTestValue, 100, 10),
		frag("Glucose duplicate", constants.LabelTestName, 200, 10),
		frag("", constants.LabelTestUnit, 300, 10),
	}}

	fields := row.Fields()
	assert.Equal(t, "Glucose", fields[constants.LabelTestName])
	assert.Equal(t, "95", fields[constants.LabelTestValue])
	// empty-text fragments still claim their label slot
	assert.Contains(t, fields, constants.LabelTestUnit)
}
