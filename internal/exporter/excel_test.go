package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "combined.xlsx")
	require.NoError(t, NewExcelWriter().Write(path, combinedFixture(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Combined")
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, []string{"timestamp", "Temperature", "Status"}, rows[0])
	assert.Equal(t, "°C", rows[1][1])
	assert.Equal(t, "2024-01-01 00:00:00", rows[2][0])
	assert.Equal(t, "ok", rows[2][2])

	// Numeric cells survive as numbers.
	v, err := f.GetCellValue("Combined", "B3")
	require.NoError(t, err)
	assert.Equal(t, "20.5", v)
}

func TestExcelWriter_CustomSheetName(t *testing.T) {
	w := &ExcelWriter{SheetName: "Report"}
	path := filepath.Join(t.TempDir(), "combined.xlsx")
	require.NoError(t, w.Write(path, combinedFixture(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Report"}, f.GetSheetList())
}
