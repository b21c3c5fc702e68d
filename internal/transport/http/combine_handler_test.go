package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridmerge/internal/config"
	"gridmerge/internal/operations"
	"gridmerge/internal/websocket"
)

func newTestRouter(t *testing.T) (stdhttp.Handler, *operations.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := operations.NewManager(logger)
	hub := websocket.NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	return NewRouter(&cfg, manager, hub, logger), manager
}

func writeSourceCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boiler.csv")
	content := "timestamp,temp\n" +
		"2024-01-01 00:00:00,20.0\n" +
		"2024-01-01 00:01:00,21.0\n" +
		"2024-01-01 00:02:00,22.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func combineBody(path string) string {
	return fmt.Sprintf(`{
		"grid": {"start": "2024-01-01 00:00:00", "end": "2024-01-01 00:02:00", "interval": "1m"},
		"sources": [{
			"name": "boiler",
			"path": %q,
			"columns": [{"name": "temp", "title": "Temperature", "unit": "degC"}]
		}]
	}`, path)
}

func TestCombineEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	body := combineBody(writeSourceCSV(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/combine", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	var resp CombineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OperationID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, []string{"Temperature"}, resp.Columns)
	assert.Equal(t, []string{"degC"}, resp.Units)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, 20.0, resp.Rows[0][0])
	assert.Equal(t, 22.0, resp.Rows[2][0])
	assert.Len(t, resp.Timestamps, 3)
}

func TestCombineEndpointRejectsMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/combine", bytes.NewBufferString("{not json"))
	router.ServeHTTP(rec, req)

	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestCombineEndpointRejectsInvalidJob(t *testing.T) {
	router, _ := newTestRouter(t)

	// Structurally valid JSON, but no sources.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/combine",
		bytes.NewBufferString(`{"grid": {"start": "2024-01-01", "end": "2024-01-02", "interval": "1m"}, "sources": []}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestOperationLookup(t *testing.T) {
	router, _ := newTestRouter(t)
	body := combineBody(writeSourceCSV(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/combine", bytes.NewBufferString(body))
	router.ServeHTTP(rec, req)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var resp CombineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/operations/"+resp.OperationID, nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, resp.OperationID, snap["id"])
	assert.Equal(t, "completed", snap["status"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/operations", nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestOperationNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/operations/nope", nil))
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestProblemResponsesCarryRequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/no/such/route", nil)
	req.Header.Set("X-Request-ID", "req-12345")
	router.ServeHTTP(rec, req)

	require.Equal(t, stdhttp.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-12345", body["trace_id"])
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/health", nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}
