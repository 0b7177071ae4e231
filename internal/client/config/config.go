package config

import "time"

// Config holds runtime settings for the attendance CLI.
//
// Fields:
//   - ServerURL: base URL of the attendance API.
//   - DBPath: SQLite file holding the local identity cache.
//   - RequestTimeout: upper bound for one HTTP request, retry included.
//   - ScanTimeout: how long a QR scan waits for a readable code.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL      string
	DBPath         string
	RequestTimeout time.Duration
	ScanTimeout    time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DBPath = "qrattend.db"
	c.RequestTimeout = 10 * time.Second
	c.ScanTimeout = 60 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
