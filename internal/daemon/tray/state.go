// Package tray implements the system tray icon and menu for the daemon.
package tray

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lullaby-fm/lullaby/internal/daemon/controller"
	"github.com/lullaby-fm/lullaby/internal/models"
)

// Playback provides the tray with the controller's command handle and its
// last published state.
type Playback interface {
	Sender() controller.Sender
	Status() models.PlaybackStatus
}

// maxFolderTitle bounds the track folder label so the menu stays narrow.
const maxFolderTitle = 48

func toggleTitle(state models.PlaybackState) string {
	if state == models.StatePaused {
		return "Play"
	}
	return "Pause"
}

func folderTitle(root, home string) string {
	if root == "" {
		return "Track folder: not set"
	}
	display := root
	if home != "" {
		if rel, err := filepath.Rel(home, root); err == nil && !strings.HasPrefix(rel, "..") {
			display = filepath.Join("~", rel)
			if rel == "." {
				display = "~"
			}
		}
	}
	if n := len([]rune(display)); n > maxFolderTitle {
		display = "…" + string([]rune(display)[n-maxFolderTitle+1:])
	}
	return "Track folder: " + display
}

func formatTooltip(status models.PlaybackStatus) string {
	filled := 0
	for _, ch := range status.Channels {
		if ch.Queued > 0 {
			filled++
		}
	}
	return fmt.Sprintf("Lullaby: %s, %d/%d channels filled", status.State, filled, len(status.Channels))
}

// openCommand returns the command that opens dir in the platform file manager.
func openCommand(goos, dir string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{dir}
	case "windows":
		return "explorer", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

func userHome() string {
	home, _ := os.UserHomeDir()
	return home
}
