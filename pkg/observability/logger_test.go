package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeLines parses each JSON log line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &line))
		lines = append(lines, line)
	}
	return lines
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("chain resolved")
	logger.Info("workspace created")
	logger.Warn("redis unreachable")
	logger.Error("revision write failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "redis unreachable", lines[0]["msg"])
	assert.Equal(t, "ERROR", lines[1]["level"])
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"workspace_id": int64(4),
		"board_id":     int64(9),
	}).WithActor(7).Info("board moved")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(4), lines[0]["workspace_id"])
	assert.Equal(t, float64(9), lines[0]["board_id"])
	assert.Equal(t, float64(7), lines[0]["actor_id"])
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("version conflict")).Error("mutation retry exhausted")
	logger.WithError(nil).Info("clean run")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "version conflict", lines[0]["error"])
	_, hasError := lines[1]["error"]
	assert.False(t, hasError)
}

func TestLoggerFormatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Infof("deleted %d expired invitations", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "deleted 3 expired invitations", lines[0]["msg"])
}

func TestLoggerDerivedDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("workspace_id", int64(4))
	logger.Info("no fields expected")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	_, has := lines[0]["workspace_id"]
	assert.False(t, has)
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(ErrorLevel, &buf)

	func() {
		defer RecoverPanic(logger, "invitation cleanup")
		panic("cleanup exploded")
	}()

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "panic recovered", lines[0]["msg"])
	assert.Equal(t, "cleanup exploded", lines[0]["panic"])
	assert.Equal(t, "invitation cleanup", lines[0]["operation"])
	assert.Contains(t, lines[0]["stack"], "goroutine")
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "INFO", LogLevel(42).String())
}
