package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chaisql/tally/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "text", cfg.Output.Format)
	require.Equal(t, 20, cfg.Output.MaxRows)
	require.Equal(t, 0, cfg.Engine.SpillThreshold)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	require.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, []string{"NA", ""}, cfg.Loader.NAStrings)
	require.Empty(t, cfg.Datasets)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[output]
format = "csv"
max_rows = 50

[engine]
spill_threshold = 100000
spill_dir = "/tmp/tally"

[server]
port = 9000

[loader]
na_strings = ["NA", "-", ""]

[datasets]
sales = "data/sales.csv"
events = "/var/lib/events.jsonl"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "csv", cfg.Output.Format)
	require.Equal(t, 50, cfg.Output.MaxRows)
	require.Equal(t, 100000, cfg.Engine.SpillThreshold)
	require.Equal(t, "/tmp/tally", cfg.Engine.SpillDir)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, []string{"NA", "-", ""}, cfg.Loader.NAStrings)

	require.Equal(t, []string{"events", "sales"}, cfg.DatasetNames())
	require.Equal(t, filepath.Join(filepath.Dir(path), "data/sales.csv"), cfg.Datasets["sales"])
	require.Equal(t, "/var/lib/events.jsonl", cfg.Datasets["events"])
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TALLY_OUTPUT_MAX_ROWS", "5")
	t.Setenv("TALLY_LOG_LEVEL", "error")

	cfg, err := config.Load(writeConfig(t, "[output]\nmax_rows = 50\n"))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Output.MaxRows)
	require.Equal(t, "error", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "[output]\nmax_rows = -1\n"))
	require.EqualError(t, err, "output.max_rows must be positive, got -1")

	_, err = config.Load(writeConfig(t, "[server]\nport = 70000\n"))
	require.EqualError(t, err, "server.port must be between 1 and 65535, got 70000")
}
