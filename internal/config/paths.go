// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"

	"github.com/lullaby-fm/lullaby/internal/models"
)

const (
	// GlobalDirName is the name of the global Lullaby directory.
	GlobalDirName = ".lullaby"

	// TracksDirName is the default track root inside the global directory.
	TracksDirName = "tracks"

	// HomeEnv overrides the global directory location (used by tests and
	// portable installs).
	HomeEnv = "LULLABY_HOME"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
)

// GlobalDir returns the path to the global Lullaby directory (~/.lullaby/).
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// DefaultTrackRoot returns ~/.lullaby/tracks.
func DefaultTrackRoot() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TracksDirName), nil
}

// CategoryDir derives the directory holding a category's tracks.
func CategoryDir(trackRoot string, c models.Category) string {
	return filepath.Join(trackRoot, c.Subdir())
}

// EnsureGlobalDir creates the global Lullaby directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureTrackDirs creates both category directories under trackRoot.
func EnsureTrackDirs(trackRoot string) error {
	for _, c := range models.Categories {
		if err := os.MkdirAll(CategoryDir(trackRoot, c), 0755); err != nil {
			return err
		}
	}
	return nil
}
