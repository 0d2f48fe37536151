package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SESSION_SECRET, DATABASE_PATH, SERVER_HTTP_PORT, ...)
//  2. YAML config file (~/.config/tasklist/config.yaml by default)
//  3. Defaults
//
// A missing file is not an error. An existing file must live in
// ~/.config/tasklist/ or /etc/tasklist/, have 0600 or 0400 permissions
// and be at most 1MB.
//
// Environment variables map to keys by splitting on the first underscore:
//
//	SESSION_SECRET   -> session.secret
//	DATABASE_PATH    -> database.path
//	BACKUP_SMTP_HOST -> backup.smtp_host
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configSections are the top-level keys environment variables may set.
var configSections = map[string]bool{
	"server":        true,
	"database":      true,
	"session":       true,
	"auth":          true,
	"tasks":         true,
	"backup":        true,
	"observability": true,
	"logging":       true,
}

// envKey maps SECTION_FIELD_NAME to section.field_name. Variables outside a
// known section, or naming a bare section, map to "" and are skipped.
func envKey(s string) string {
	section, field, ok := strings.Cut(strings.ToLower(s), "_")
	if !ok || field == "" || !configSections[section] {
		return ""
	}
	return section + "." + field
}

// readConfigFile opens the file once and validates it through the open
// descriptor to avoid a TOCTOU race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tasklist"), nil
}

// validateConfigPath checks if path is in allowed directories.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Paths that do not exist yet are validated as given.
		resolvedPath = absPath
	}

	userDir, err := defaultConfigDir()
	if err != nil {
		return err
	}

	for _, dir := range []string{userDir, "/etc/tasklist"} {
		if resolvedPath == dir || strings.HasPrefix(resolvedPath, dir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/tasklist/ or /etc/tasklist/")
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
