// Package config holds runtime configuration for the subtitle-injection
// pipeline. Values come from defaults overridden by YEAH_* environment
// variables; components receive what they need through constructors.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the pipeline's runtime configuration.
type Config struct {
	// ProxyBindHost is the interface the caption proxy listens on. Only
	// loopback makes sense; the proxy serves the player process next to it.
	ProxyBindHost string

	// FetchTimeout bounds each origin HTTP fetch.
	FetchTimeout time.Duration

	// LogPath, when set, routes process logging through a rotating file.
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ProxyBindHost: "127.0.0.1",
		FetchTimeout:  30 * time.Second,
		LogMaxSizeMB:  20,
		LogMaxBackups: 3,
		LogMaxAgeDays: 14,
	}
}

// FromEnv returns the default configuration with environment overrides
// applied.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("YEAH_PROXY_BIND_HOST"); v != "" {
		cfg.ProxyBindHost = v
	}
	if v := os.Getenv("YEAH_FETCH_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.FetchTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("YEAH_LOG_PATH"); v != "" {
		cfg.LogPath = v
	}

	return cfg
}

// ConfigureLogging points the standard logger at a rotating log file when
// LogPath is set. With no LogPath the default stderr destination stays.
func (c Config) ConfigureLogging() {
	if c.LogPath == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   c.LogPath,
		MaxSize:    c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAgeDays,
		Compress:   true,
	})
}
