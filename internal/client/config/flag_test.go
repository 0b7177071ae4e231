package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "http://10.0.0.1:9090", "-d", "/tmp/q.db", "-t", "3", "-s", "20", "-l", "debug"},
			expected: &Config{ServerURL: "http://10.0.0.1:9090", DBPath: "/tmp/q.db", RequestTimeout: 3 * time.Second, ScanTimeout: 20 * time.Second, LogLevel: "debug"}},
		{name: "foreign flags ignored", args: []string{"cmd", "-c", "x.json", "-a", "http://h", "-zzz"},
			expected: &Config{ServerURL: "http://h"}},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
