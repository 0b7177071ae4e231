package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_url":      "https://attend.example",
		"db_path":         "/var/lib/qrattend.db",
		"request_timeout": "4s",
		"scan_timeout":    int64(30 * time.Second),
		"log_level":       "info",
	})
	pathEnv := writeTempJSON(t, dir, "env.json", map[string]any{
		"server_url": "https://env.example",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "https://attend.example", cfg.ServerURL)
		assert.Equal(t, "/var/lib/qrattend.db", cfg.DBPath)
		assert.Equal(t, 4*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("falls back to env and keeps absent keys", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("QRATTEND_CONFIG", pathEnv)

		cfg := &Config{DBPath: "keep.db", ScanTimeout: time.Minute}
		parseJson(cfg)

		assert.Equal(t, "https://env.example", cfg.ServerURL)
		assert.Equal(t, "keep.db", cfg.DBPath)
		assert.Equal(t, time.Minute, cfg.ScanTimeout)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("QRATTEND_CONFIG", "")

		cfg := &Config{ServerURL: "http://defaults:1234", RequestTimeout: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
