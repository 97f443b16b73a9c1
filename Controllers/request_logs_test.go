package Controllers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediFlow/middleware"
)

func writeLog(t *testing.T, entries ...middleware.LogData) string {
	t.Helper()
	var b strings.Builder
	for _, e := range entries {
		raw, err := json.Marshal(e)
		require.NoError(t, err)
		b.Write(raw)
		b.WriteString("\n")
	}
	b.WriteString("GET /health 200 not json\n")
	path := filepath.Join(t.TempDir(), "requests.log")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestRequestLogsGrouped(t *testing.T) {
	now := fixedNow()
	path := writeLog(t,
		middleware.LogData{Timestamp: now.Add(-time.Hour), Method: "POST", Path: "/api/asistencia/marcar", Status: 201, Latency: 10 * time.Millisecond, Principal: "uid-ana"},
		middleware.LogData{Timestamp: now.Add(-time.Minute), Method: "POST", Path: "/api/asistencia/marcar", Status: 409, Latency: 30 * time.Millisecond, Principal: "uid-ana"},
		middleware.LogData{Timestamp: now, Method: "GET", Path: "/api/asistencia/actual", Status: 200, Latency: 2 * time.Millisecond, Principal: "uid-luis"},
		middleware.LogData{Timestamp: now.AddDate(0, 0, -3), Method: "GET", Path: "/api/asistencia/actual", Status: 200},
	)
	c := NewRequestLogController(path, lima)
	c.Now = fixedNow
	app := fiber.New()
	app.Get("/admin/logs", c.GetLogs)

	resp, err := app.Test(httptestGet("/admin/logs"), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out LogsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 3, out.TotalLogs)
	require.Len(t, out.Groups, 2)
	marcar := out.Groups[0]
	assert.Equal(t, "/api/asistencia/marcar", marcar.Path)
	assert.Equal(t, 2, marcar.Count)
	assert.Equal(t, 20.0, marcar.AvgLatency)
	assert.Equal(t, 10.0, marcar.MinLatency)
	assert.Equal(t, 30.0, marcar.MaxLatency)
	assert.Equal(t, 0.5, marcar.SuccessRate)
	assert.Equal(t, "uid-luis", out.Recent[0].Principal)

	resp, err = app.Test(httptestGet("/admin/logs?principal=uid-ana&status=409"), -1)
	require.NoError(t, err)
	out = LogsResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.TotalLogs)

	resp, err = app.Test(httptestGet("/admin/logs?date_from=2025-03-01&date_to=2025-03-10"), -1)
	require.NoError(t, err)
	out = LogsResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 4, out.TotalLogs)

	resp, err = app.Test(httptestGet("/admin/logs?date_from=yesterday"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRequestLogsMissingFile(t *testing.T) {
	c := NewRequestLogController(filepath.Join(t.TempDir(), "none.log"), lima)
	app := fiber.New()
	app.Get("/admin/logs", c.GetLogs)
	resp, err := app.Test(httptestGet("/admin/logs"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func httptestGet(path string) *http.Request {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com"+path, nil)
	return req
}
