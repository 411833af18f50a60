package cli

import (
	"github.com/spf13/cobra"

	"github.com/lullaby-fm/lullaby/internal/daemon/server"
	"github.com/lullaby-fm/lullaby/internal/models"
	"github.com/lullaby-fm/lullaby/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the interactive now-playing view",
	Long: `Open the interactive now-playing view.

Keys: space toggles play/pause, p plays, s pauses, d changes the track
folder and q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := EnsureDaemon(); err != nil {
			return err
		}

		conn, err := connectDaemon()
		if err != nil {
			return err
		}
		defer conn.Close()

		return tui.Run(server.NewControlClient(conn), models.DefaultTickInterval)
	},
}
