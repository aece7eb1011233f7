package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache backends understood by the offline store.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// AppConfig holds all user-defined persistent settings
type AppConfig struct {
	CourseID       string `json:"course_id,omitempty"`
	CourseYear     int    `json:"course_year,omitempty"`
	AcademicYear   int    `json:"academic_year,omitempty"`
	BuildingID     string `json:"building_id,omitempty"`
	AccentColor    string `json:"accent_color,omitempty"`
	CacheBackend   string `json:"cache_backend,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	PortalURL      string `json:"portal_url,omitempty"`
}

// Backend returns the configured cache backend, defaulting to BackendFile.
func (c *AppConfig) Backend() string {
	if c.CacheBackend == BackendSQLite {
		return BackendSQLite
	}
	return BackendFile
}

// Timeout returns the per-request timeout, or zero when unset.
func (c *AppConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate rejects values the rest of the application cannot use.
func (c *AppConfig) Validate() error {
	switch c.CacheBackend {
	case "", BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q (want %q or %q)", c.CacheBackend, BackendFile, BackendSQLite)
	}
	if c.CourseYear < 0 {
		return fmt.Errorf("course year must be positive, got %d", c.CourseYear)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.TimeoutSeconds)
	}
	return nil
}

// getConfigPath returns the absolute path to ~/.orarictl.json
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".orarictl.json"), nil
}

// Load reads the application configuration from disk.
// Returns an empty struct if the file does not exist.
func Load() (*AppConfig, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &AppConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the application configuration back to disk.
func Save(cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := getConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
