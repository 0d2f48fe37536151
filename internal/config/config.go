// Package config provides configuration loading for tasklist.
//
// Configuration is read from an optional YAML file and then overridden by
// environment variables. Missing values fall back to defaults and the result
// is validated before use.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds the complete tasklist configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Session       SessionConfig       `koanf:"session"`
	Auth          AuthConfig          `koanf:"auth"`
	Tasks         TasksConfig         `koanf:"tasks"`
	Backup        BackupConfig        `koanf:"backup"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig locates the SQLite data file.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SessionConfig controls cookie-carried sessions.
type SessionConfig struct {
	Secret       Secret        `koanf:"secret"`
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	SecureCookie bool          `koanf:"secure_cookie"`
}

// AuthConfig holds password hashing parameters.
type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

// TasksConfig holds task behaviour switches.
type TasksConfig struct {
	// DoneMode is "set" (completing always marks done) or "toggle".
	DoneMode string `koanf:"done_mode"`
}

// BackupConfig holds backup job settings. Mail credentials are not part of
// the config: the job reads them from the environment on every run.
//
// The weekly schedule runs unless Disabled is set.
type BackupConfig struct {
	Disabled bool   `koanf:"disabled"`
	Schedule string `koanf:"schedule"`
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
	Subject  string `koanf:"subject"`
	TempDir  string `koanf:"temp_dir"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	Protocol        string `koanf:"protocol"`
}

// LoggingConfig holds the knobs exposed for the logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Done modes accepted by TasksConfig.DoneMode.
const (
	DoneModeSet    = "set"
	DoneModeToggle = "toggle"
)

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "tasks.db"
	}

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "tasklist_session"
	}

	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	if cfg.Tasks.DoneMode == "" {
		cfg.Tasks.DoneMode = DoneModeSet
	}

	if cfg.Backup.Schedule == "" {
		cfg.Backup.Schedule = "0 0 3 * * 0" // Sundays at 03:00
	}
	if cfg.Backup.SMTPHost == "" {
		cfg.Backup.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Backup.SMTPPort == 0 {
		cfg.Backup.SMTPPort = 587
	}
	if cfg.Backup.Subject == "" {
		cfg.Backup.Subject = "Task list weekly backup"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "tasklist"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout or session TTL is not positive
//   - Session secret is missing or shorter than 16 bytes
//   - Done mode is not "set" or "toggle"
//   - bcrypt cost is outside bcrypt's accepted range
//   - Service name is empty while telemetry is enabled
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if !c.Session.Secret.IsSet() {
		return errors.New("session secret is required (set SESSION_SECRET)")
	}
	if len(c.Session.Secret.Value()) < 16 {
		return errors.New("session secret must be at least 16 bytes")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid bcrypt cost: %d (must be %d-%d)", c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.Tasks.DoneMode {
	case DoneModeSet, DoneModeToggle:
	default:
		return fmt.Errorf("invalid done mode %q (must be %q or %q)", c.Tasks.DoneMode, DoneModeSet, DoneModeToggle)
	}

	if c.Backup.SMTPPort < 1 || c.Backup.SMTPPort > 65535 {
		return fmt.Errorf("invalid smtp port: %d", c.Backup.SMTPPort)
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}
