// Package cli implements the lullaby CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lullaby",
	Short: "Control the Lullaby background audio daemon",
	Long: `Lullaby plays ambient background sound and lofi music from two folders
under a track directory. This CLI starts and stops the daemon and controls
playback while it runs.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(dirCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
}
