// Package tui implements the interactive now-playing view for Lullaby.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lullaby-fm/lullaby/internal/daemon/server"
)

// Run launches the TUI against a connected daemon. refresh is how often the
// view polls playback status.
func Run(client *server.ControlClient, refresh time.Duration) error {
	model := NewModel(client, refresh)

	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
