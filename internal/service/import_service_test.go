package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// buildWorkbook writes a small BOQ sheet and returns the xlsx bytes
func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	require.NoError(t, wb.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	return buf.Bytes()
}

func TestPreview_ParsesHeaderAndRows(t *testing.T) {
	data := buildWorkbook(t, "Electrical", [][]interface{}{
		{"BOQ extract"}, // title row above the header
		{"No", "Designation", "Unite", "Qte", "PU"},
		{"1.1", "Main distribution board", "pcs", 3, 1200},
		{"1.2", "Cabling", "m", 250, 4.5},
		{"", "", "", "", ""},
	})

	svc := NewImportService(zap.NewNop())
	preview, err := svc.Preview(bytes.NewReader(data), "boq.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "boq.xlsx", preview.FileName)
	require.Len(t, preview.Sheets, 1)

	sheet := preview.Sheets[0]
	assert.Equal(t, "Electrical", sheet.SheetName)
	require.Len(t, sheet.Items, 2)

	assert.Equal(t, "1.1", sheet.Items[0].No)
	assert.Equal(t, "Main distribution board", sheet.Items[0].Key)
	assert.Equal(t, "pcs", sheet.Items[0].Unite)
	assert.Equal(t, 3.0, sheet.Items[0].Qte)
	assert.Equal(t, 1200.0, sheet.Items[0].Pu)
	assert.Equal(t, 4.5, sheet.Items[1].Pu)
}

func TestPreview_SheetWithoutHeaderIsSkipped(t *testing.T) {
	data := buildWorkbook(t, "Notes", [][]interface{}{
		{"just", "some", "text"},
		{"nothing", "tabular", "here"},
	})

	svc := NewImportService(zap.NewNop())
	preview, err := svc.Preview(bytes.NewReader(data), "notes.xlsx")
	require.NoError(t, err)

	require.Len(t, preview.Sheets, 1)
	assert.Empty(t, preview.Sheets[0].Items)
	assert.Equal(t, 2, preview.Sheets[0].Skipped)
}

func TestPreview_BadNumbersCountedAsSkipped(t *testing.T) {
	data := buildWorkbook(t, "Electrical", [][]interface{}{
		{"No", "Designation", "Unite", "Qte", "PU"},
		{"1.1", "Good row", "m", "10", "2,5"},
		{"1.2", "Bad quantity", "m", "ten", "1"},
	})

	svc := NewImportService(zap.NewNop())
	preview, err := svc.Preview(bytes.NewReader(data), "boq.xlsx")
	require.NoError(t, err)

	sheet := preview.Sheets[0]
	require.Len(t, sheet.Items, 1)
	assert.Equal(t, 2.5, sheet.Items[0].Pu, "French decimal comma accepted")
	assert.Equal(t, 1, sheet.Skipped)
}

func TestPreview_RejectsNonWorkbook(t *testing.T) {
	svc := NewImportService(zap.NewNop())
	_, err := svc.Preview(bytes.NewReader([]byte("not an xlsx")), "junk.bin")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
