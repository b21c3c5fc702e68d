package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmerge/internal/timeseries"
)

func combinedFixture(t *testing.T) *timeseries.CombinedDataset {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	grid, err := timeseries.NewTimeGrid(start, start.Add(10*time.Minute), 5*time.Minute)
	require.NoError(t, err)

	return &timeseries.CombinedDataset{
		Grid:    grid,
		Columns: []string{"Temperature", "Status"},
		Units:   []string{"°C", ""},
		Rows: [][]timeseries.Value{
			{timeseries.Number(20.5), timeseries.Text("ok")},
			{timeseries.Number(21), timeseries.Missing()},
			{timeseries.Number(22.25), timeseries.Text("ok")},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "combined.csv")
	require.NoError(t, NewCSVWriter().Write(path, combinedFixture(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"), "BOM prefix")

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\xEF\xBB\xBF")))
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	// Header, units row, three data rows.
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"timestamp", "Temperature", "Status"}, rows[0])
	assert.Equal(t, []string{"", "°C", ""}, rows[1])
	assert.Equal(t, []string{"2024-01-01 00:00:00", "20.5", "ok"}, rows[2])
	assert.Equal(t, "", rows[3][2], "missing renders as empty cell")
}

func TestCSVWriter_NoUnitsRowWhenUnitless(t *testing.T) {
	ds := combinedFixture(t)
	ds.Units = []string{"", ""}

	path := filepath.Join(t.TempDir(), "combined.csv")
	require.NoError(t, NewCSVWriter().Write(path, ds))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\xEF\xBB\xBF")), "\n")
	assert.Len(t, lines, 4)
}

func TestCSVWriter_PlainOutput(t *testing.T) {
	w := &CSVWriter{}
	path := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, w.Write(path, combinedFixture(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"))
	assert.True(t, strings.HasPrefix(string(data), "timestamp,"))
}
