package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/daemon/server"
	"github.com/lullaby-fm/lullaby/internal/models"
)

var dirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Show or change the track directory",
	Long: `Show or change the track directory.

Tracks are read from two subfolders of the track directory:
  backgroundSound/  ambient sound (played at low volume)
  lofiMusic/        lofi music

Changing the directory takes effect when each channel next needs a track.
The new path is saved to ~/.lullaby/settings.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDir,
}

func runDir(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		root, err := config.LoadTrackRoot()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		printTrackRoot(root)
		return nil
	}

	running, _, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	path, err := config.ExpandPath(args[0])
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", args[0], err)
	}

	if running {
		return withDaemon(func(ctx context.Context, client *server.ControlClient) error {
			root, err := client.SetDirectory(ctx, path)
			if err != nil {
				return fmt.Errorf("set directory: %w", err)
			}
			printTrackRoot(root)
			return nil
		})
	}

	root, err := config.SaveTrackRoot(path)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := config.EnsureTrackDirs(root); err != nil {
		return fmt.Errorf("failed to create track folders: %w", err)
	}
	printTrackRoot(root)
	fmt.Println(styleHint.Render("Daemon is not running; the directory is used on next start."))
	return nil
}

func printTrackRoot(root string) {
	fmt.Printf("%s %s\n", styleLabel.Render("Track directory:"), styleValue.Render(root))
	for _, c := range models.Categories {
		fmt.Printf("  %s %s\n", styleLabel.Render(fmt.Sprintf("%-10s", c)), styleHint.Render(config.CategoryDir(root, c)))
	}
	if root == "" {
		fmt.Println(styleWarning.Render("No track directory set."))
	}
}
