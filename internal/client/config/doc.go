// Package config loads runtime configuration for the attendance CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags -c or -config,
//     or the QRATTEND_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the attendance API
//	-d string   path of the local SQLite store
//	-t int      request timeout (seconds)
//	-s int      scan timeout (seconds)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds. Keys left out keep their earlier value:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "db_path": "qrattend.db",
//	  "request_timeout": "10s",
//	  "scan_timeout": "1m",
//	  "log_level": "info"
//	}
package config
