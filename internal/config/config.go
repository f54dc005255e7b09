package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the openconsole daemon.
type Config struct {
	Port     int
	APIKey   string
	LogLevel string

	// DataDir is the scratch directory holding the session index, output
	// logs, and the sqlite journal.
	DataDir string

	// PollInterval is the driver tick for live sessions.
	PollInterval time.Duration

	// MaxOutputLines bounds how many trailing complete lines of one output
	// burst reach the client.
	MaxOutputLines int

	// EncryptedInput enables RSA decryption of incoming stdin text, for
	// deployments where input crosses a network boundary.
	EncryptedInput bool

	// AskPass is an external program invoked to answer password prompts
	// (prompt text as argv[1], password on stdout). Empty disables the
	// credential cache; prompts then flow to the client as events.
	AskPass string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           8080,
		APIKey:         os.Getenv("OPENCONSOLE_API_KEY"),
		LogLevel:       envOrDefault("OPENCONSOLE_LOG_LEVEL", "info"),
		DataDir:        envOrDefault("OPENCONSOLE_DATA_DIR", defaultDataDir()),
		PollInterval:   50 * time.Millisecond,
		MaxOutputLines: 500,
		EncryptedInput: os.Getenv("OPENCONSOLE_ENCRYPTED_INPUT") == "true",
		AskPass:        os.Getenv("OPENCONSOLE_ASKPASS"),
	}

	if port := os.Getenv("OPENCONSOLE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid OPENCONSOLE_PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if ms := os.Getenv("OPENCONSOLE_POLL_INTERVAL_MS"); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid OPENCONSOLE_POLL_INTERVAL_MS %q", ms)
		}
		cfg.PollInterval = time.Duration(v) * time.Millisecond
	}

	if lines := os.Getenv("OPENCONSOLE_MAX_OUTPUT_LINES"); lines != "" {
		v, err := strconv.Atoi(lines)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid OPENCONSOLE_MAX_OUTPUT_LINES %q", lines)
		}
		cfg.MaxOutputLines = v
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/openconsole"
	}
	return home + "/.openconsole"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
