// Package config provides configuration management for the ExamBot TUI.
package config

import (
	"os"
	"time"
)

// Config holds the TUI configuration.
type Config struct {
	// Backend connection
	BackendURL     string
	BackendTimeout time.Duration

	// Prefilled login name
	Username string

	// How long status bar toasts stay visible
	ToastDuration time.Duration

	// Optional log file; the terminal is owned by the UI
	LogFile string
}

// Load returns configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8001"),
		BackendTimeout: getDuration("BACKEND_TIMEOUT", 2*time.Minute),
		Username:       getEnv("EXAMBOT_ADMIN_USER", ""),
		ToastDuration:  getDuration("EXAMBOT_TOAST_DURATION", 4*time.Second),
		LogFile:        getEnv("EXAMBOT_TUI_LOG", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
