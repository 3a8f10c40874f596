package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/adityaks/labreport-extractor/internal/format"
)

func TestExportRecordsXLSX(t *testing.T) {
	svc := NewService(nil)

	records := []format.Record{
		{TestName: "hemoglobin", Value: "10.2", Unit: "g/dL", ReferenceRange: "12.0-16.0", OutOfRange: true},
		{TestName: "sodium", Value: "138.1", Unit: "mmol/L", ReferenceRange: "135-145", OutOfRange: false},
	}

	b, err := svc.ExportRecordsXLSX("report.png", records)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	const sheet = "Lab Tests"

	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Test Name", header)

	name, _ := f.GetCellValue(sheet, "A2")
	assert.Equal(t, "hemoglobin", name)
	value, _ := f.GetCellValue(sheet, "B2")
	assert.Equal(t, "10.2", value)
	oor, _ := f.GetCellValue(sheet, "E2")
	assert.Equal(t, "TRUE", oor)
	source, _ := f.GetCellValue(sheet, "F2")
	assert.Equal(t, "report.png", source)

	name, _ = f.GetCellValue(sheet, "A3")
	assert.Equal(t, "sodium", name)
}

func TestExportRecordsXLSXEmpty(t *testing.T) {
	svc := NewService(nil)

	b, err := svc.ExportRecordsXLSX("report.png", nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Lab Tests", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Test Name", header)
}
