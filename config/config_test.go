package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.ProxyBindHost != "127.0.0.1" {
		t.Errorf("ProxyBindHost = %q, want 127.0.0.1", cfg.ProxyBindHost)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("YEAH_PROXY_BIND_HOST", "::1")
	t.Setenv("YEAH_FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("YEAH_LOG_PATH", "/tmp/yeahplayer.log")

	cfg := FromEnv()

	if cfg.ProxyBindHost != "::1" {
		t.Errorf("ProxyBindHost = %q, want ::1", cfg.ProxyBindHost)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.LogPath != "/tmp/yeahplayer.log" {
		t.Errorf("LogPath = %q", cfg.LogPath)
	}
}

func TestFromEnvIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv("YEAH_FETCH_TIMEOUT_SECONDS", "not-a-number")

	if cfg := FromEnv(); cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want default", cfg.FetchTimeout)
	}
}
