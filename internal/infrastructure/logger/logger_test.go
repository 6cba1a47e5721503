package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, DefaultService, cfg.Service)
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, DefaultService, cfg.Service)
}

func TestNew(t *testing.T) {
	t.Run("stamps every entry with the service field", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "server.log")

		log, err := New(&Config{
			Level:   "info",
			Format:  "json",
			Output:  logPath,
			Service: "marketplace-backend",
		})
		require.NoError(t, err)

		log.Info("withdrawal settled",
			zap.String("transaction_code", "TXN-0123456789AB"),
			zap.String("amount", "250"),
		)
		require.NoError(t, log.Sync())

		raw, err := os.ReadFile(logPath)
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(raw, &entry))
		assert.Equal(t, "marketplace-backend", entry["service"])
		assert.Equal(t, "withdrawal settled", entry["message"])
		assert.Equal(t, "TXN-0123456789AB", entry["transaction_code"])
		assert.Equal(t, "info", entry["level"])
		assert.NotEmpty(t, entry["ts"])
		assert.NotEmpty(t, entry["caller"])
	})

	t.Run("falls back to the default service name", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "server.log")

		log, err := New(&Config{Level: "info", Format: "json", Output: logPath})
		require.NoError(t, err)

		log.Info("trade escrowed")
		require.NoError(t, log.Sync())

		raw, err := os.ReadFile(logPath)
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(raw, &entry))
		assert.Equal(t, DefaultService, entry["service"])
	})

	t.Run("suppresses entries below the configured level", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "server.log")

		log, err := New(&Config{Level: "warn", Format: "json", Output: logPath})
		require.NoError(t, err)

		log.Info("listing published")
		log.Warn("withdrawal velocity limit reached")
		require.NoError(t, log.Sync())

		raw, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "listing published")
		assert.Contains(t, string(raw), "withdrawal velocity limit reached")
	})
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			log, err := NewForEnvironment(env)

			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestNewWriter(t *testing.T) {
	t.Run("recognizes the standard streams", func(t *testing.T) {
		for _, output := range []string{"stdout", "stderr", "STDOUT", ""} {
			assert.NotNil(t, newWriter(output))
		}
	})

	t.Run("opens a file path", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "audit.log")

		writer := newWriter(logPath)
		require.NotNil(t, writer)

		_, err := writer.Write([]byte("ledger reconciled\n"))
		require.NoError(t, err)

		raw, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "ledger reconciled")
	})

	t.Run("falls back to stdout for an unopenable path", func(t *testing.T) {
		writer := newWriter(filepath.Join(t.TempDir(), "missing", "nested", "audit.log"))
		assert.NotNil(t, writer)
	})
}

func TestSync(t *testing.T) {
	log, err := NewForEnvironment("development")
	require.NoError(t, err)

	// stdout may reject Sync on some platforms; it must not panic
	_ = Sync(log)
}
