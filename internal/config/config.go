// Package config provides environment-driven configuration for go-eyectl commands.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Defaults used when the environment does not override them.
const (
	DefaultPort          = "8090"
	DefaultLogLevel      = "info"
	DefaultFlushInterval = 5 * time.Second
	DefaultServerURL     = "http://localhost:" + DefaultPort
)

// Server holds the settings of the eyectl server.
type Server struct {
	Port          string
	DataPath      string
	LogLevel      string
	FlushInterval time.Duration
}

// Load reads the server configuration from the environment.
func Load() Server {
	return Server{
		Port:          Port(),
		DataPath:      DataPath(),
		LogLevel:      LogLevel(),
		FlushInterval: FlushInterval(),
	}
}

// Port returns the HTTP port from EYECTL_PORT or the default.
func Port() string {
	return envOr("EYECTL_PORT", DefaultPort)
}

// LogLevel returns the log level from LOG_LEVEL or the default.
func LogLevel() string {
	return envOr("LOG_LEVEL", DefaultLogLevel)
}

// DataPath returns the session store path from EYECTL_DATA.
// Falls back to ~/.eyectl/sessions.json, or ./sessions.json when the home
// directory cannot be resolved.
func DataPath() string {
	if p := os.Getenv("EYECTL_DATA"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions.json"
	}
	return filepath.Join(home, ".eyectl", "sessions.json")
}

// FlushInterval returns how often dirty sessions are written to disk,
// from EYECTL_FLUSH_INTERVAL (a Go duration string).
func FlushInterval() time.Duration {
	if v := os.Getenv("EYECTL_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultFlushInterval
}

// ServerURL returns the base URL of a running server from EYECTL_SERVER.
func ServerURL() string {
	return envOr("EYECTL_SERVER", DefaultServerURL)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
