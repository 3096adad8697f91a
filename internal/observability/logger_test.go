// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hyhfish/playwright-mcp/internal/config"
)

// syncBuffer wraps a bytes.Buffer to satisfy zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "test-service",
		}, zapcore.Lock(&buf))

		GetLogger().Info("hello from the console encoder")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "hello from the console encoder")
		assert.Contains(t, output, "test-service.")
	})

	t.Run("json format", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "test-service",
		}, zapcore.Lock(&buf))

		GetLogger().Info("structured entry")

		line := strings.TrimSpace(buf.String())
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "structured entry", entry["msg"])
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		var buf syncBuffer

		Initialize(config.LoggerConfig{
			Level:  "definitely-not-a-level",
			Format: "json",
		}, zapcore.Lock(&buf))

		GetLogger().Debug("should be suppressed")
		GetLogger().Info("should appear")

		output := buf.String()
		assert.NotContains(t, output, "should be suppressed")
		assert.Contains(t, output, "should appear")
	})

	t.Run("second initialize is a no-op", func(t *testing.T) {
		ResetForTest()
		var first, second syncBuffer

		Initialize(config.LoggerConfig{Format: "json"}, zapcore.Lock(&first))
		Initialize(config.LoggerConfig{Format: "json"}, zapcore.Lock(&second))

		GetLogger().Info("routed to the first writer")
		assert.Contains(t, first.String(), "routed to the first writer")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger, "fallback logger must always be available")
}
