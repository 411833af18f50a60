package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lullaby-fm/lullaby/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		buildinfo.Print(os.Stdout, "lullaby")
	},
}
