package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(LogConfig{Format: LogFormatText, Output: &buf}).Info("slot taken", "time", "18:00")

		assert.Contains(t, buf.String(), "slot taken")
		assert.Contains(t, buf.String(), "time=18:00")
	})

	t.Run("json format with service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "reserva-worker",
			ServiceVersion: "1.2.0",
		})
		logger.Info("relay started")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "relay started", entry["msg"])
		assert.Equal(t, "reserva-worker", entry["service"])
		assert.Equal(t, "1.2.0", entry["version"])
	})

	t.Run("filters below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})
		logger.Debug("debug line")
		logger.Info("info line")
		logger.Warn("warn line")

		assert.NotContains(t, buf.String(), "debug line")
		assert.NotContains(t, buf.String(), "info line")
		assert.Contains(t, buf.String(), "warn line")
	})

	t.Run("adds ids from the context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

		ctx := WithChatID(WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1"), "1001")
		logger.With("bot", "booking").InfoContext(ctx, "update received")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "req-1", entry[RequestIDKey])
		assert.Equal(t, "1001", entry[ChatIDKey])
		assert.Equal(t, "booking", entry["bot"])
	})
}

func TestLogLevel(t *testing.T) {
	tests := map[LogLevel]slog.Level{
		LogLevelDebug: slog.LevelDebug,
		LogLevelInfo:  slog.LevelInfo,
		LogLevelWarn:  slog.LevelWarn,
		LogLevelError: slog.LevelError,
		"WARN":        slog.LevelWarn,
		"verbose":     slog.LevelInfo,
		"":            slog.LevelInfo,
	}
	for level, want := range tests {
		assert.Equal(t, want, level.slogLevel(), "level %q", level)
	}
}

func TestLogConfigs(t *testing.T) {
	dev := DefaultLogConfig()
	assert.Equal(t, LogFormatText, dev.Format)
	assert.False(t, dev.AddSource)

	prod := ProductionLogConfig()
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.True(t, prod.AddSource)
	assert.Equal(t, "reserva", prod.ServiceName)
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogOperation(logger, "create_reservation", "date", "2024-06-10").Info("committed")

	assert.Contains(t, buf.String(), "operation=create_reservation")
	assert.Contains(t, buf.String(), "date=2024-06-10")
}
