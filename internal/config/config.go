// Package config reads and writes the user's persisted configuration as
// JSON in the platform-specific per-user config directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

const (
	appDirName  = "tracker-relay"
	fileName    = "config.json"
	cacheSuffix = "offsets_cache.json"
)

// Dir returns the application's per-user config directory, creating it if
// necessary.
func Dir() (string, error) {
	dir := filepath.Join(xdg.ConfigHome, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create config dir: %w", err)
	}
	return dir, nil
}

func filePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// OffsetCachePath is where the offset loader persists its last-known-good
// fetch, alongside config.json.
func OffsetCachePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheSuffix), nil
}

// Load reads config.json, returning types.DefaultConfig() if it does not
// exist yet.
func Load() (types.Config, error) {
	path, err := filePath()
	if err != nil {
		return types.Config{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return types.DefaultConfig(), nil
	}
	if err != nil {
		return types.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg types.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return types.Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Write persists cfg to config.json.
func Write(cfg types.Config) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
