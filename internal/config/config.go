package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// AnalysisConfig holds defaults applied when a request leaves them out.
type AnalysisConfig struct {
	DefaultFPS       float64 `yaml:"default_fps"`
	ConcentricCutoff float64 `yaml:"concentric_cutoff"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Level maps log_level to a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix SQUATTER_ and underscore-separated paths:
//
//	SQUATTER_SERVER_HOST, SQUATTER_SERVER_PORT,
//	SQUATTER_DB_HOST, SQUATTER_DB_PORT, SQUATTER_DB_NAME,
//	SQUATTER_DB_USER, SQUATTER_DB_PASSWORD, SQUATTER_DB_SSLMODE,
//	SQUATTER_AUTH_API_KEY, SQUATTER_TAILSCALE_ENABLED,
//	SQUATTER_ANALYSIS_DEFAULT_FPS, SQUATTER_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := &Config{
		Tailscale: TailscaleConfig{Hostname: "squatter", StateDir: "tsnet-state"},
		Analysis:  AnalysisConfig{DefaultFPS: 30, ConcentricCutoff: 0.9},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQUATTER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SQUATTER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SQUATTER_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SQUATTER_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SQUATTER_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SQUATTER_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SQUATTER_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SQUATTER_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("SQUATTER_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("SQUATTER_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("SQUATTER_ANALYSIS_DEFAULT_FPS"); v != "" {
		if fps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.DefaultFPS = fps
		}
	}
	if v := os.Getenv("SQUATTER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Analysis.DefaultFPS <= 0 {
		return fmt.Errorf("analysis.default_fps must be positive")
	}
	if c.Analysis.ConcentricCutoff <= 0 || c.Analysis.ConcentricCutoff > 1 {
		return fmt.Errorf("analysis.concentric_cutoff must be in (0, 1]")
	}
	return nil
}
