// Package config resolves application paths and settings.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
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

// DataDir returns the directory holding the database and working files.
// Resolution order: the data.dir setting, then the default under the
// user config directory.
func DataDir() string {
	if dir := viper.GetString("data.dir"); dir != "" {
		return ExpandPath(dir)
	}
	return ExpandPath("~/.config/palletflow")
}

// DatabasePath returns the SQLite database path, honoring an explicit
// database.path override.
func DatabasePath() string {
	if path := viper.GetString("database.path"); path != "" {
		return ExpandPath(path)
	}
	return filepath.Join(DataDir(), "palletflow.db")
}
