package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "source.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadExcel(t *testing.T) {
	path := writeWorkbook(t, "readings", [][]interface{}{
		{"timestamp", "temp", "note"},
		{"2024-01-01 08:00:00", 20.5, "calm"},
		{"2024-01-01 08:05:00", 21.0, ""},
	})

	ds, err := ReadExcel(path, "", Options{})
	require.NoError(t, err)

	assert.Equal(t, "source", ds.Name)
	assert.Equal(t, []string{"temp", "note"}, ds.Columns)
	require.Len(t, ds.Rows, 2)

	v, ok := ds.Rows[0].Cells[0].Float()
	require.True(t, ok)
	assert.Equal(t, 20.5, v)
	assert.True(t, ds.Rows[1].Cells[1].IsMissing())
}

func TestReadExcel_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "data", [][]interface{}{
		{"timestamp", "v"},
		{"2024-01-01 00:00:00", 1},
	})

	_, err := ReadExcel(path, "missing", Options{})
	assert.Error(t, err)

	ds, err := ReadExcel(path, "data", Options{})
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 1)
}

func TestReadExcel_HeaderAfterBlankRows(t *testing.T) {
	path := writeWorkbook(t, "padded", [][]interface{}{
		{},
		{},
		{"timestamp", "v"},
		{"2024-01-01 00:00:00", 5},
	})

	ds, err := ReadExcel(path, "", Options{})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)

	v, _ := ds.Rows[0].Cells[0].Float()
	assert.Equal(t, 5.0, v)
}

func TestReadExcel_MissingFile(t *testing.T) {
	_, err := ReadExcel(filepath.Join(t.TempDir(), "nope.xlsx"), "", Options{})
	assert.Error(t, err)
}
