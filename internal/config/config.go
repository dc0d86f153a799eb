package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names
const (
	EnvPort          = "IRLSUS_PORT"
	EnvDBPath        = "IRLSUS_DB"
	EnvAdminPassword = "IRLSUS_ADMIN_PASSWORD"
	EnvLogLevel      = "IRLSUS_LOG_LEVEL"
	EnvLogFormat     = "IRLSUS_LOG_FORMAT"
	EnvBaseURL       = "IRLSUS_BASE_URL"
	EnvSweepInterval = "IRLSUS_SWEEP_INTERVAL"
	EnvMaxGames      = "IRLSUS_MAX_GAMES"
	EnvDefaultTasks  = "IRLSUS_TASKS"
)

// Config holds server configuration
type Config struct {
	Port          int
	DBPath        string
	AdminPassword string // generated at startup when empty
	LogLevel      string
	LogFormat     string
	BaseURL       string // detected from the LAN address when empty
	SweepInterval time.Duration
	MaxGames      int // 0 means unlimited
	DefaultTasks  []string
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Port:      8080,
		DBPath:    "irlsus.db",
		LogLevel:  "info",
		LogFormat: "text",
		MaxGames:  200,
	}
}

// Load reads configuration from environment variables on top of Default
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()
	cfg.DBPath = getEnv(getenv, EnvDBPath, cfg.DBPath)
	cfg.AdminPassword = getEnv(getenv, EnvAdminPassword, cfg.AdminPassword)
	cfg.LogLevel = strings.ToLower(getEnv(getenv, EnvLogLevel, cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv(getenv, EnvLogFormat, cfg.LogFormat))
	cfg.BaseURL = getEnv(getenv, EnvBaseURL, cfg.BaseURL)

	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	if v := getenv(EnvMaxGames); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvMaxGames, err)
		}
		cfg.MaxGames = n
	}
	if v := getenv(EnvSweepInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSweepInterval, err)
		}
		cfg.SweepInterval = d
	}
	if v := getenv(EnvDefaultTasks); v != "" {
		cfg.DefaultTasks = SplitTasks(v)
	}
	return cfg, nil
}

// SplitTasks parses a comma-separated task list, dropping blanks
func SplitTasks(s string) []string {
	var tasks []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			tasks = append(tasks, name)
		}
	}
	return tasks
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.DBPath == "":
		return fmt.Errorf("database path is required")
	case c.SweepInterval < 0:
		return fmt.Errorf("sweep interval must not be negative")
	case c.MaxGames < 0:
		return fmt.Errorf("max games must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL %q must start with http:// or https://", c.BaseURL)
	}
	return nil
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}
