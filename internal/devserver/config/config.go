// Package config handles configuration for the development server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the development server.
//
// Fields:
//   - ListenAddr: bind address for the HTTP API.
//   - SessionSecret: key authenticating the session cookie.
//   - TokenSecret: HMAC secret for signing re-authentication JWTs (HS256).
//   - QRValidity: how long a generated QR code accepts attendance.
//   - TokenValidity: lifetime of a re-authentication token.
//   - PublicURL: base URL encoded into QR payloads.
//
// The defaults are for local use only and must be overridden anywhere else.
type Config struct {
	ListenAddr    string
	SessionSecret string
	TokenSecret   string
	QRValidity    time.Duration
	TokenValidity time.Duration
	PublicURL     string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.SessionSecret = "dev-session-secret"
	c.TokenSecret = "dev-token-secret"
	c.QRValidity = 5 * time.Minute
	c.TokenValidity = 24 * time.Hour
	c.PublicURL = "http://127.0.0.1:8080"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
