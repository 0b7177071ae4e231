package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
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
	path := writeTempJSON(t, dir, "dev.json", map[string]any{
		"listen_addr":    ":9000",
		"session_secret": "cookie",
		"token_secret":   "jwt",
		"qr_validity":    "90s",
		"token_validity": int64(time.Hour),
		"public_url":     "http://qr.local",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "cookie", cfg.SessionSecret)
		assert.Equal(t, "jwt", cfg.TokenSecret)
		assert.Equal(t, 90*time.Second, cfg.QRValidity)
		assert.Equal(t, time.Hour, cfg.TokenValidity)
		assert.Equal(t, "http://qr.local", cfg.PublicURL)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv(flagx.ConfigEnvVar, "")

		cfg := &Config{ListenAddr: ":1234", QRValidity: time.Minute}
		parseJson(cfg)

		assert.Equal(t, ":1234", cfg.ListenAddr)
		assert.Equal(t, time.Minute, cfg.QRValidity)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
