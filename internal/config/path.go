// Package config loads component configuration from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Dir is the directory holding config.yaml, the database and saved tokens.
func Dir() string {
	return ExpandPath("~/.config/paperwork")
}

// DefaultDatabasePath is where the database lives when database.path is unset.
func DefaultDatabasePath() string {
	return filepath.Join(Dir(), "paperwork.db")
}

// DefaultTokenFile is where the interactive calendar OAuth flow saves its token.
func DefaultTokenFile() string {
	return filepath.Join(Dir(), "calendar-token.json")
}
