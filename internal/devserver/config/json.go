package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/flagx"
	"github.com/dmitrijs2005/qrattend/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "90s" and integer nanoseconds are accepted.
type JsonConfig struct {
	ListenAddr    string         `json:"listen_addr"`
	SessionSecret string         `json:"session_secret"`
	TokenSecret   string         `json:"token_secret"`
	QRValidity    timex.Duration `json:"qr_validity"`
	TokenValidity timex.Duration `json:"token_validity"`
	PublicURL     string         `json:"public_url"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.ListenAddr = c.ListenAddr
	config.SessionSecret = c.SessionSecret
	config.TokenSecret = c.TokenSecret
	config.QRValidity = time.Duration(c.QRValidity.Duration)
	config.TokenValidity = time.Duration(c.TokenValidity.Duration)
	config.PublicURL = c.PublicURL
}
