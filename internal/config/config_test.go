package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

// setupTestHome points HOME at a temp dir and returns the allowed config dir.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "tasklist")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_DefaultsFromEnvironmentOnly(t *testing.T) {
	setupTestHome(t)
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "tasks.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "tasklist_session", cfg.Session.CookieName)
	assert.Equal(t, DoneModeSet, cfg.Tasks.DoneMode)
	assert.False(t, cfg.Backup.Disabled, "weekly backup runs by default")
	assert.Equal(t, "0 0 3 * * 0", cfg.Backup.Schedule)
	assert.Equal(t, "smtp.gmail.com", cfg.Backup.SMTPHost)
	assert.Equal(t, 587, cfg.Backup.SMTPPort)
	assert.Equal(t, testSecret, cfg.Session.Secret.Value())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, fmt.Sprintf(`server:
  http_port: 8081
database:
  path: /var/lib/tasklist/data.db
session:
  secret: %s
  ttl: 2h
tasks:
  done_mode: toggle
backup:
  disabled: true
  schedule: "@weekly"
`, testSecret), 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/var/lib/tasklist/data.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, DoneModeToggle, cfg.Tasks.DoneMode)
	assert.True(t, cfg.Backup.Disabled)
	assert.Equal(t, "@weekly", cfg.Backup.Schedule)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, fmt.Sprintf(`server:
  http_port: 8081
session:
  secret: %s
database:
  path: from-file.db
`, testSecret), 0600)

	t.Setenv("SERVER_HTTP_PORT", "7777")
	t.Setenv("DATABASE_PATH", "from-env.db")
	t.Setenv("TASKS_DONE_MODE", "toggle")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, DoneModeToggle, cfg.Tasks.DoneMode)
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  http_port: 8081\n", 0644)
	t.Setenv("SESSION_SECRET", testSecret)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_RejectsPathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)
	t.Setenv("SESSION_SECRET", testSecret)

	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation failed")
}

func TestLoad_MissingSecretFails(t *testing.T) {
	setupTestHome(t)
	t.Setenv("SESSION_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session secret is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Session.Secret = Secret(testSecret)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port too low", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "short secret", mutate: func(c *Config) { c.Session.Secret = "short" }, wantErr: "at least 16 bytes"},
		{name: "bad done mode", mutate: func(c *Config) { c.Tasks.DoneMode = "flip" }, wantErr: "invalid done mode"},
		{name: "bad bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 99 }, wantErr: "invalid bcrypt cost"},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = " " }, wantErr: "database path is required"},
		{
			name: "telemetry without service name",
			mutate: func(c *Config) {
				c.Observability.EnableTelemetry = true
				c.Observability.ServiceName = ""
			},
			wantErr: "service name required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_NeverSerialized(t *testing.T) {
	s := Secret("hunter2-hunter2-hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))

	out, err := json.Marshal(struct {
		S Secret `json:"s"`
	}{S: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"[REDACTED]"}`, string(out))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "session.secret", envKey("SESSION_SECRET"))
	assert.Equal(t, "server.http_port", envKey("SERVER_HTTP_PORT"))
	assert.Equal(t, "backup.smtp_host", envKey("BACKUP_SMTP_HOST"))
	assert.Equal(t, "", envKey("PATH"))
	assert.Equal(t, "", envKey("BACKUP"))
	assert.Equal(t, "", envKey("BACKUP_"))
	assert.Equal(t, "", envKey("MAIL_USERNAME"))
}

func TestLoad_IgnoresUnrelatedEnvironment(t *testing.T) {
	setupTestHome(t)
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("BACKUP", "nightly")
	t.Setenv("SERVER", "web-1")
	t.Setenv("TASKS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0 0 3 * * 0", cfg.Backup.Schedule)
}
