package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/daemon/server"
	"github.com/lullaby-fm/lullaby/internal/models"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback (starts the daemon if needed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(ctx context.Context, client *server.ControlClient) error {
			if err := client.Play(ctx); err != nil {
				return fmt.Errorf("play: %w", err)
			}
			fmt.Println(styleSuccess.Render("Playing."))
			return nil
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunningDaemon(func(ctx context.Context, client *server.ControlClient) error {
			if err := client.Pause(ctx); err != nil {
				return fmt.Errorf("pause: %w", err)
			}
			fmt.Println(styleSuccess.Render("Paused."))
			return nil
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between playing and paused",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(ctx context.Context, client *server.ControlClient) error {
			state, err := client.Toggle(ctx)
			if err != nil {
				return fmt.Errorf("toggle: %w", err)
			}
			fmt.Println(styleSuccess.Render(capitalize(state) + "."))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show playback status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunningDaemon(func(ctx context.Context, client *server.ControlClient) error {
			status, err := client.GetStatus(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			printStatus(status)
			return nil
		})
	},
}

// withRunningDaemon is withDaemon without auto-start.
func withRunningDaemon(fn func(ctx context.Context, client *server.ControlClient) error) error {
	running, _, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Println("Daemon is not running.")
		fmt.Println(styleHint.Render("Start it with: lullaby daemon start"))
		return nil
	}
	return withDaemon(fn)
}

func printStatus(status *server.DaemonStatus) {
	p := status.Playback
	fmt.Printf("%s %s\n", styleBrand.Render("Lullaby"), stateBadge(p.State))
	fmt.Printf("  %s  %s\n", styleLabel.Render("Tracks"), styleValue.Render(p.TrackRoot))
	for _, ch := range p.Channels {
		summary := channelSummary(ch)
		if ch.Queued == 0 {
			summary = badgeEmpty.Render(summary)
		} else {
			summary = styleValue.Render(summary)
		}
		fmt.Printf("  %s  %s\n", styleLabel.Render(fmt.Sprintf("%-10s", ch.Category)), summary)
	}
	fmt.Println(styleHint.Render(fmt.Sprintf("  pid %d, up %s", status.PID, status.Uptime.Truncate(time.Second))))
}

func stateBadge(state models.PlaybackState) string {
	if state == models.StatePaused {
		return badgePaused.Render("paused")
	}
	return badgePlaying.Render("playing")
}

// channelSummary describes what a channel is doing in plain text.
func channelSummary(ch models.ChannelStatus) string {
	if ch.Queued == 0 {
		return fmt.Sprintf("waiting for tracks in %s", ch.Dir)
	}
	if ch.LastTrack == "" {
		return "playing"
	}
	return ch.LastTrack
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
