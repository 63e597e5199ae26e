// Package config loads labeler settings from viper and resolves the paths
// they name.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath replaces a leading ~ with the home directory, expands $VAR
// references and cleans the result.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// DataDir is where the database, images and backups live by default:
// $XDG_DATA_HOME/labeler, or ~/.local/share/labeler.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "labeler")
	}
	return filepath.Join("~", ".local", "share", "labeler")
}
