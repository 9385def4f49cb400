package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(handler)), &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLogRequest_LevelFollowsStatus(t *testing.T) {
	logger, buf := captureLogger()

	cases := map[int]string{200: "INFO", 404: "WARN", 500: "ERROR"}
	for status, level := range cases {
		logger.LogRequest("POST", "/api/v1/imports", status, "1ms", "job_id", "job-1")
		entry := lastEntry(t, buf)
		assert.Equal(t, level, entry["level"])
		assert.Equal(t, float64(status), entry["status_code"])
		assert.Equal(t, "job-1", entry["job_id"])
	}
}

func TestLogError_AddsError(t *testing.T) {
	logger, buf := captureLogger()

	logger.With("component", "import").LogError(errors.New("boom"), "Import failed", "job_id", "job-1")

	entry := lastEntry(t, buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "import", entry["component"])
	assert.Equal(t, "Import failed", entry["msg"])
}

func TestToSlogLogger(t *testing.T) {
	logger, _ := captureLogger()
	assert.NotNil(t, ToSlogLogger(logger))
	assert.NotNil(t, ToSlogLogger(NewLogger("production")))
}
