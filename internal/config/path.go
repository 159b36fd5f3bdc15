// Package config loads hostelctl settings from the config file, HOSTEL_
// environment variables and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the config and data directories.
const AppName = "hostelctl"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns $HOME/.config/hostelctl.
func Dir() string {
	return ExpandPath(filepath.Join("~", ".config", AppName))
}

// DefaultStoragePath is where the local session database lives unless
// storage.path says otherwise.
func DefaultStoragePath() string {
	return ExpandPath(filepath.Join("~", ".local", "share", AppName, AppName+".db"))
}
