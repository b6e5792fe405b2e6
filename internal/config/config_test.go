package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fascicolo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "fascicolo.db", cfg.Database)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/cases.db
log:
  level: DEBUG
  format: json
metrics:
  enabled: true
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cases.db", cfg.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("database: here.db\n"), 0644))
	chdir(t, dir)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "here.db", cfg.Database)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")
	t.Setenv("FASCICOLO_LOG_LEVEL", "error")
	t.Setenv("FASCICOLO_DATABASE", "env.db")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "env.db", cfg.Database)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FASCICOLO_DATABASE", "env.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	require.NoError(t, fs.Parse([]string{"--db", "flag.db"}))

	v := New()
	require.NoError(t, BindFlags(v, fs, map[string]string{"db": KeyDatabase, "absent": KeyLogLevel}))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.Database)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n  format: xml\n")

	_, err := Load(New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `log.level "loud" is invalid`)
	assert.Contains(t, err.Error(), `log.format "xml" is invalid`)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := LogConfig{Level: tt.level}.SlogLevel()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LogConfig{Level: ""}.SlogLevel()
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
