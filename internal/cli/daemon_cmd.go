package cli

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lullaby-fm/lullaby/internal/daemon/server"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the lullabyd background process",
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where lullabyd is listening",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Launch lullabyd if it is not running",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop playback and shut lullabyd down",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStatusCmd, daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	info, err := launchDaemon()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", styleSuccess.Render("lullabyd is up"), describeInstance(info))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := GetDaemonStatus()
	if err != nil {
		return err
	}
	if !running {
		fmt.Println(styleHint.Render("lullabyd is not running"))
		return nil
	}

	fmt.Println(styleSuccess.Render("lullabyd is running"))
	printField("Address", fmt.Sprintf("%s:%d", info.Host, info.Port))
	printField("PID", fmt.Sprint(info.PID))
	printField("Instance", info.InstanceID)
	printField("Uptime", info.Uptime(time.Now()).String())
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := GetDaemonStatus()
	if err != nil {
		return err
	}
	if !running {
		fmt.Println(styleHint.Render("lullabyd is not running"))
		return nil
	}

	if err := requestShutdown(); err != nil {
		// The control port is unreachable; the signal handler runs the same
		// shutdown path.
		if err := signalDaemon(info.PID); err != nil {
			return err
		}
	}

	if err := awaitInstanceExit(info.InstanceID); err != nil {
		return fmt.Errorf("lullabyd (pid %d) is still running: %w", info.PID, err)
	}
	fmt.Println(styleSuccess.Render("lullabyd stopped"))
	return nil
}

func describeInstance(info *DaemonStatusInfo) string {
	return styleHint.Render(fmt.Sprintf("(pid %d, %s:%d)", info.PID, info.Host, info.Port))
}

func printField(label, value string) {
	fmt.Printf("  %s %s\n", styleLabel.Render(fmt.Sprintf("%-9s", label+":")), styleValue.Render(value))
}

// requestShutdown sends the Shutdown RPC, which makes lullabyd stop
// playback, release the audio device and remove daemon.yaml.
func requestShutdown() error {
	conn, err := connectDaemon()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	return server.NewControlClient(conn).Shutdown(ctx)
}

func signalDaemon(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("lullabyd pid %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal lullabyd pid %d: %w", pid, err)
	}
	return nil
}
