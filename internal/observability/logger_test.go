// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/trafficsim/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncBuffer is a goroutine safe bytes.Buffer usable as a zap sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Sync() error { return nil }

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestInitialize(t *testing.T) {
	t.Run("console output is colorized and named", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &syncBuffer{}

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "trafficsim",
			Colors:      config.ColorConfig{Info: "green"},
		}, out)

		GetLogger().Info("Opening page", zap.String("url", "https://www.example.com/a"))
		Sync()

		output := out.String()
		assert.Contains(t, output, colorGreen+"INFO"+colorReset)
		assert.Contains(t, output, "trafficsim.")
		assert.Contains(t, output, "Opening page")
		assert.Contains(t, output, "https://www.example.com/a")
	})

	t.Run("json output is structured", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "jsontest"}, out)
		GetLogger().Warn("Read failed", zap.String("reason", "stale"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, jsoniter.Unmarshal(bytes.TrimSpace([]byte(out.String())), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "jsontest", entry["logger"])
		assert.Equal(t, "Read failed", entry["msg"])
		assert.Equal(t, "stale", entry["reason"])
	})

	t.Run("level filter drops debug", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, out)
		GetLogger().Debug("hidden")
		Sync()
		assert.NotContains(t, out.String(), "hidden")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		out := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "loud", Format: "json"}, out)
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()
		assert.NotContains(t, out.String(), "hidden")
		assert.Contains(t, out.String(), "shown")
	})

	t.Run("file sink receives json lines", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		logPath := filepath.Join(t.TempDir(), "trafficsim.log")

		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logPath,
			MaxSize: 1,
		}, zapcore.AddSync(&syncBuffer{}))
		GetLogger().Error("Browser launch failed")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"Browser launch failed"`)
	})

	t.Run("only the first initialization wins", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		first := &syncBuffer{}
		second := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, first)
		logger1 := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "second"}, second)
		logger2 := GetLogger()

		assert.Same(t, logger1, logger2)
		logger2.Info("once")
		Sync()
		assert.Contains(t, first.String(), `"logger":"first"`)
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("fallback works") })
	assert.NotPanics(t, Sync)
}
