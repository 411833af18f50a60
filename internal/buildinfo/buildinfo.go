// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

import (
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

var (
	Version    = "dev"
	Codename   = "unknown"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Styles for version output (matching CLI styles).
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "45"})
	styleVersion = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "40"})
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
	styleValue   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
	styleHint    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
)

// Print writes the version block for the named binary.
func Print(w io.Writer, binary string) {
	fmt.Fprintf(w, "  %s %s %s\n",
		styleBrand.Render(binary),
		styleVersion.Render(Version),
		styleHint.Render("("+Codename+")"),
	)
	fmt.Fprintf(w, "    %s  %s\n", styleLabel.Render("Commit"), styleValue.Render(CommitHash))
	fmt.Fprintf(w, "    %s   %s\n", styleLabel.Render("Built"), styleValue.Render(BuildDate))
	fmt.Fprintf(w, "    %s %s\n", styleLabel.Render("OS/Arch"), styleValue.Render(runtime.GOOS+"/"+runtime.GOARCH))
	fmt.Fprintf(w, "    %s      %s\n", styleLabel.Render("Go"), styleValue.Render(runtime.Version()))
}
