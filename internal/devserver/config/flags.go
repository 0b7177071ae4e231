package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   session cookie secret
//	-k string   JWT HMAC secret key
//	-q int      QR code validity, seconds
//	-r int      re-authentication token validity, minutes
//	-u string   public base URL encoded into QR codes
//
// Only the flags listed above are passed to the flag set; everything else in
// os.Args is filtered out with flagx.FilterArgs.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-k", "-q", "-r", "-u"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session cookie secret")
	fs.StringVar(&config.TokenSecret, "k", config.TokenSecret, "token secret key")

	qrValidity := fs.Int("q", int(config.QRValidity.Seconds()), "qr_validity (in seconds)")
	tokenValidity := fs.Int("r", int(config.TokenValidity.Minutes()), "token_validity (in minutes)")

	fs.StringVar(&config.PublicURL, "u", config.PublicURL, "public base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.QRValidity = time.Duration(*qrValidity) * time.Second
	config.TokenValidity = time.Duration(*tokenValidity) * time.Minute
}
