package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLogger returns a debug-level JSON logger writing into buf.
func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, buf
}

// lastRecord decodes the last JSON log line in buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var data map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &data))
	return data
}

// TestEnrichLogger tests that chain context fields are attached.
func TestEnrichLogger(t *testing.T) {
	logger, buf := newTestLogger()

	enriched := EnrichLogger(logger, "chain-1", "run-abc", 2)
	enriched.Info("stage work")

	data := lastRecord(t, buf)
	assert.Equal(t, "chain-1", data["chain_id"])
	assert.Equal(t, "run-abc", data["run_id"])
	assert.Equal(t, float64(2), data["stage"])
}

// TestEnrichLogger_NilLogger tests nil tolerance.
func TestEnrichLogger_NilLogger(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "c", "r", 0))
}

// TestLogAttachDetach tests attach/detach log fields.
func TestLogAttachDetach(t *testing.T) {
	logger, buf := newTestLogger()

	LogAttach(logger, "reg-1", "click")
	data := lastRecord(t, buf)
	assert.Equal(t, "listener attached", data["msg"])
	assert.Equal(t, "reg-1", data["handle"])
	assert.Equal(t, "click", data["event_type"])

	LogDetach(logger, "reg-1", "click")
	data = lastRecord(t, buf)
	assert.Equal(t, "listener detached", data["msg"])
}

// TestLogChainRun tests the chain run log helpers.
func TestLogChainRun(t *testing.T) {
	logger, buf := newTestLogger()

	LogChainRunStart(logger, "c1", "run-1", 3)
	data := lastRecord(t, buf)
	assert.Equal(t, "chain run starting", data["msg"])
	assert.Equal(t, float64(3), data["stages"])

	LogChainRunComplete(logger, "c1", "run-1", 2, 1.5)
	data = lastRecord(t, buf)
	assert.Equal(t, "chain run completed", data["msg"])
	assert.Equal(t, float64(2), data["stages_run"])

	LogStageError(logger, "c1", "run-1", 1, errors.New("boom"))
	data = lastRecord(t, buf)
	assert.Equal(t, "chain stage failed", data["msg"])
	assert.Equal(t, float64(1), data["stage"])
	assert.Equal(t, "boom", data["error"])
}

// TestLogHelpers_NilLogger tests that every helper tolerates a nil logger.
func TestLogHelpers_NilLogger(t *testing.T) {
	err := errors.New("x")
	assert.NotPanics(t, func() {
		LogAttach(nil, "h", "e")
		LogDetach(nil, "h", "e")
		LogAttachError(nil, "h", "attach", err)
		LogCallbackError(nil, "h", "e", err)
		LogSweep(nil, 1)
		LogCleanup(nil, 1, 2)
		LogChainRunStart(nil, "c", "r", 0)
		LogChainRunComplete(nil, "c", "r", 0, 0)
		LogStageError(nil, "c", "r", 0, err)
		LogJournalError(nil, "attach", err)
	})
}
