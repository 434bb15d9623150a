package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Session store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinSessionSecretLen is the minimum cookie signing secret length in bytes.
const MinSessionSecretLen = 32

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Session   SessionConfig   `yaml:"session"`
	Upload    UploadConfig    `yaml:"upload"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	LogLevel  string          `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port          int           `yaml:"port" envconfig:"SERVER_PORT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	SessionSecret string        `yaml:"session_secret" envconfig:"SESSION_SECRET"`
	SecureCookies bool          `yaml:"secure_cookies" envconfig:"SECURE_COOKIES"`
}

// BackendConfig holds the ExamBot backend connection settings.
type BackendConfig struct {
	// URL is the backend origin. Admin routes live under URL+"/api",
	// generation routes directly under URL.
	URL     string        `yaml:"url" envconfig:"BACKEND_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"BACKEND_TIMEOUT"`
	// GenerateRPS caps generation calls per second. Zero disables the limit.
	GenerateRPS float64 `yaml:"generate_rps" envconfig:"BACKEND_GENERATE_RPS"`
}

// SessionConfig holds admin session storage configuration.
type SessionConfig struct {
	Driver        string        `yaml:"driver" envconfig:"SESSION_DRIVER"`
	DSN           string        `yaml:"dsn" envconfig:"SESSION_DSN"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// UploadConfig holds image upload limits.
type UploadConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes" envconfig:"UPLOAD_MAX_FILE_BYTES"`
	Concurrency  int   `yaml:"concurrency" envconfig:"UPLOAD_CONCURRENCY"`
}

// WorkspaceConfig holds per-visitor page state retention.
type WorkspaceConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"WORKSPACE_TTL"`
}

// Default returns the configuration used when neither file nor environment
// sets a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Backend: BackendConfig{
			Timeout: 2 * time.Minute,
		},
		Session: SessionConfig{
			Driver:        DriverSQLite,
			DSN:           "exambot.db",
			TTL:           12 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Upload: UploadConfig{
			MaxFileBytes: 10 << 20,
			Concurrency:  4,
		},
		Workspace: WorkspaceConfig{
			TTL: 30 * time.Minute,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file and the process environment, in increasing order of precedence.
// Variables already present in the environment win over the .env file.
func Load(configPath, envFile string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		return fmt.Errorf("BACKEND_URL must start with http:// or https://")
	}
	if len(c.Server.SessionSecret) < MinSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLen)
	}
	switch c.Session.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Session.DSN == "" {
			return fmt.Errorf("SESSION_DSN is required for driver %q", c.Session.Driver)
		}
	default:
		return fmt.Errorf("unknown SESSION_DRIVER %q", c.Session.Driver)
	}
	if c.Backend.GenerateRPS < 0 {
		return fmt.Errorf("BACKEND_GENERATE_RPS cannot be negative")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the backend origin without a trailing slash.
func (c *BackendConfig) BaseURL() string {
	return strings.TrimRight(c.URL, "/")
}
