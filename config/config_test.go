package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/tinystore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tinystore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, tinystore.DefaultRevalidateInterval, cfg.Store.RevalidateInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  revalidate_interval: 30s
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Store.RevalidateInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tinystore.DefaultRevalidateInterval, cfg.Store.RevalidateInterval)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "store: [unterminated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config")
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  level: chatty\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  format: xml\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log format")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)

	assert.Equal(t, logrus.DebugLevel, logger.Logger.GetLevel())
	logger.Debug("hello")
	assert.Contains(t, buf.String(), `"component":"tinystore"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewLogger_AutoFormatOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "info", Format: "auto"}.NewLogger(&buf)

	_, isJSON := logger.Logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON, "a buffer is not a terminal")
}

func TestRegistryOptions(t *testing.T) {
	var buf bytes.Buffer
	cfg := Defaults()
	cfg.Log.Format = "text"
	cfg.Log.Level = "debug"
	cfg.Store.RevalidateInterval = -1

	r := tinystore.NewRegistry(cfg.RegistryOptions(&buf)...)
	defer r.Dispose()

	assert.Equal(t, logrus.DebugLevel, r.Logger().Logger.GetLevel())

	s, err := tinystore.GetOrCreate(r, tinystore.Params[int]{ID: "n", Default: tinystore.Immediate(1)})
	require.NoError(t, err)
	s.Set(2)
	v, _ := s.Peek()
	assert.Equal(t, 2, v)
}
