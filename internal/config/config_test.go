package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENCONSOLE_PORT", "OPENCONSOLE_API_KEY", "OPENCONSOLE_LOG_LEVEL",
		"OPENCONSOLE_DATA_DIR", "OPENCONSOLE_POLL_INTERVAL_MS",
		"OPENCONSOLE_MAX_OUTPUT_LINES", "OPENCONSOLE_ENCRYPTED_INPUT",
		"OPENCONSOLE_ASKPASS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("PollInterval = %v, want 50ms", cfg.PollInterval)
	}
	if cfg.MaxOutputLines != 500 {
		t.Errorf("MaxOutputLines = %d, want 500", cfg.MaxOutputLines)
	}
	if cfg.EncryptedInput {
		t.Error("EncryptedInput = true, want false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENCONSOLE_PORT", "9090")
	t.Setenv("OPENCONSOLE_API_KEY", "secret")
	t.Setenv("OPENCONSOLE_LOG_LEVEL", "debug")
	t.Setenv("OPENCONSOLE_DATA_DIR", "/tmp/oc-test")
	t.Setenv("OPENCONSOLE_POLL_INTERVAL_MS", "100")
	t.Setenv("OPENCONSOLE_MAX_OUTPUT_LINES", "50")
	t.Setenv("OPENCONSOLE_ENCRYPTED_INPUT", "true")
	t.Setenv("OPENCONSOLE_ASKPASS", "/usr/bin/ssh-askpass")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", cfg.APIKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.DataDir != "/tmp/oc-test" {
		t.Errorf("DataDir = %q, want /tmp/oc-test", cfg.DataDir)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", cfg.PollInterval)
	}
	if cfg.MaxOutputLines != 50 {
		t.Errorf("MaxOutputLines = %d, want 50", cfg.MaxOutputLines)
	}
	if !cfg.EncryptedInput {
		t.Error("EncryptedInput = false, want true")
	}
	if cfg.AskPass != "/usr/bin/ssh-askpass" {
		t.Errorf("AskPass = %q, want /usr/bin/ssh-askpass", cfg.AskPass)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]string{
		"OPENCONSOLE_PORT":             "not-a-number",
		"OPENCONSOLE_POLL_INTERVAL_MS": "0",
		"OPENCONSOLE_MAX_OUTPUT_LINES": "-5",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded, want error", key, val)
			}
		})
	}
}
