package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the CLI. Everything is
// externally supplied; nothing in the data layer hardcodes an endpoint.
type Config struct {
	// APIBaseURL is the HTTP API root.
	APIBaseURL string
	// LiveURL is the live-updates WebSocket endpoint.
	LiveURL string
	// RequestTimeout bounds every HTTP call.
	RequestTimeout time.Duration
	// LogLevel and LogFile configure diagnostics. An empty LogFile
	// disables logging entirely — the TUI owns the terminal.
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables (and an optional
// .env file), applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	timeoutMs := getEnvAsInt("FLEETDECK_REQUEST_TIMEOUT_MS", 10000)
	if timeoutMs <= 0 {
		return nil, fmt.Errorf("invalid FLEETDECK_REQUEST_TIMEOUT_MS: %d", timeoutMs)
	}

	return &Config{
		APIBaseURL:     getEnv("FLEETDECK_API_URL", "https://api.fleetdeck.io"),
		LiveURL:        getEnv("FLEETDECK_LIVE_URL", "wss://live.fleetdeck.io/ws"),
		RequestTimeout: time.Duration(timeoutMs) * time.Millisecond,
		LogLevel:       getEnv("FLEETDECK_LOG_LEVEL", "info"),
		LogFile:        os.Getenv("FLEETDECK_LOG_FILE"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
