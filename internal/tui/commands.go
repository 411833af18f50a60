package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/daemon/server"
)

// rpcTimeout bounds every call made from the view.
const rpcTimeout = 5 * time.Second

// Client is the subset of the control client the view uses.
type Client interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Toggle(ctx context.Context) (string, error)
	SetDirectory(ctx context.Context, path string) (string, error)
	GetStatus(ctx context.Context) (*server.DaemonStatus, error)
}

func fetchStatusCmd(client Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		status, err := client.GetStatus(ctx)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to load status: %w", err)}
		}
		return StatusMsg{Status: status}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func toggleCmd(client Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		state, err := client.Toggle(ctx)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to toggle playback: %w", err)}
		}
		return ActionDoneMsg{Notice: "Requested: " + state}
	}
}

func playCmd(client Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		if err := client.Play(ctx); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to play: %w", err)}
		}
		return ActionDoneMsg{Notice: "Requested: playing"}
	}
}

func pauseCmd(client Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		if err := client.Pause(ctx); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to pause: %w", err)}
		}
		return ActionDoneMsg{Notice: "Requested: paused"}
	}
}

func setDirectoryCmd(client Client, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		resolved, err := config.ExpandPath(path)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("invalid path %q: %w", path, err)}
		}
		root, err := client.SetDirectory(ctx, resolved)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to change folder: %w", err)}
		}
		return ActionDoneMsg{Notice: "Track folder: " + root}
	}
}
