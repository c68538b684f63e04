// Package config resolves focus storage locations and runtime settings.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the data directory and the default store.
const AppName = "focus"

// GetFocusDir resolves the base directory for all focus storage. FOCUS_DIR wins,
// then the XDG data home, and finally the user's home directory.
func GetFocusDir() string {
	if explicit := os.Getenv("FOCUS_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), AppName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, AppName)
}

// GetDBPath returns the absolute path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetFocusDir(), "focus.db")
}

// GetBackupsDir returns the directory that stores exported backups.
func GetBackupsDir() string {
	return filepath.Join(GetFocusDir(), "backups")
}
