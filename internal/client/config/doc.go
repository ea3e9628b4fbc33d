// Package config loads runtime configuration for the storefront CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables (STOREFRONT_*).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the storefront REST API
//	-t int      request timeout (seconds)
//	-n int      notification lifetime (milliseconds)
//	-d string   path of the local SQLite database
//	-l string   log level (debug, info, warn, error)
//	-L string   log backend (slog, zap)
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "10s" or integer
// nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:8080",
//	  "request_timeout": "10s",
//	  "notification_ttl": "4s",
//	  "database_path": "storefront.db",
//	  "log_level": "warn",
//	  "log_backend": "slog"
//	}
package config
