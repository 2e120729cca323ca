package internal

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(LogLevelWarn, &buf).With("request_id", "r1")

	logger.Info("hidden %d", 1)
	assert.Empty(t, buf.String())

	logger.ErrorErr(errors.New("boom"), "query failed for %s", "de1")
	out := buf.String()
	assert.Contains(t, out, `"request_id":"r1"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "query failed for de1")
	assert.Equal(t, LogLevelWarn, logger.GetLevel())
}
