package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lullaby-fm/lullaby/internal/models"
)

// LoadSettings loads the global settings from ~/.lullaby/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFile(path)
}

// LoadSettingsFile loads and normalizes settings from an explicit path.
func LoadSettingsFile(path string) (*models.Settings, error) {
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	settings.Normalize()
	return settings, nil
}

// SaveSettings saves the global settings to ~/.lullaby/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// ResolveTrackRoot returns the effective track root for the given settings:
// the configured path with "~" expanded, or the default under the global dir.
func ResolveTrackRoot(settings *models.Settings) (string, error) {
	root := strings.TrimSpace(settings.TrackRoot)
	if root == "" {
		return DefaultTrackRoot()
	}
	return ExpandPath(root)
}

// LoadTrackRoot returns the track root the daemon should start with.
func LoadTrackRoot() (string, error) {
	settings, err := LoadSettings()
	if err != nil {
		return "", err
	}
	return ResolveTrackRoot(settings)
}

// SaveTrackRoot persists a new track root, keeping other settings intact.
func SaveTrackRoot(root string) (string, error) {
	resolved, err := ExpandPath(root)
	if err != nil {
		return "", err
	}
	settings, err := LoadSettings()
	if err != nil {
		return "", err
	}
	settings.TrackRoot = resolved
	if err := SaveSettings(settings); err != nil {
		return "", err
	}
	return resolved, nil
}

// ExpandPath expands a leading "~" and makes the path absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
