package config

import (
	"os"
	"path/filepath"
)

// TimPath returns the root directory for tim's own files (config, dotenv).
// It uses $TIM_PATH if set, otherwise defaults to ~/.tim.
func TimPath() string {
	if v := os.Getenv("TIM_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tim")
	}
	return filepath.Join(home, ".tim")
}

// ConfigPath returns the path to tim's config file.
func ConfigPath() string {
	return filepath.Join(TimPath(), "config.jsonc")
}

// DotenvPath returns the path to tim's .env file.
func DotenvPath() string {
	return filepath.Join(TimPath(), ".env")
}

// DefaultDataDir returns the default bbolt data directory, used when
// TIM_DATA_DIR and the config file both leave storage.data_dir unset.
func DefaultDataDir() string {
	return filepath.Join(TimPath(), "data")
}
