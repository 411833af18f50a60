package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/models"
)

const (
	cliBinary    = "lullaby"
	daemonBinary = "lullabyd"

	lifecycleTimeout = 5 * time.Second
	lifecyclePoll    = 100 * time.Millisecond
)

var errLifecycleTimeout = errors.New("timed out")

// EnsureDaemon returns once a lullabyd instance is serving, launching one
// when daemon.yaml is missing or points at a dead process.
func EnsureDaemon() error {
	_, err := launchDaemon()
	return err
}

// launchDaemon starts lullabyd unless one is already running and returns the
// info of the instance now serving. IsDaemonRunning drops a stale daemon.yaml,
// so a fresh instance is recognised by its InstanceID.
func launchDaemon() (*DaemonStatusInfo, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return nil, fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return statusInfo(info), nil
	}

	binary, err := findDaemonBinary()
	if err != nil {
		return nil, err
	}
	proc := exec.Command(binary)
	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", daemonBinary, err)
	}
	// lullabyd outlives this process; nothing waits on it.
	_ = proc.Process.Release()

	var stale string
	if info != nil {
		stale = info.InstanceID
	}
	var fresh *models.DaemonInfo
	err = pollUntil(lifecycleTimeout, func() bool {
		ok, cur, err := config.IsDaemonRunning()
		if err != nil || !ok || cur.InstanceID == stale {
			return false
		}
		fresh = cur
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%s did not publish daemon.yaml: %w", daemonBinary, err)
	}
	return statusInfo(fresh), nil
}

// awaitInstanceExit waits until the instance with the given ID no longer
// owns daemon.yaml.
func awaitInstanceExit(instanceID string) error {
	return pollUntil(lifecycleTimeout, func() bool {
		ok, cur, err := config.IsDaemonRunning()
		return err == nil && (!ok || cur.InstanceID != instanceID)
	})
}

// pollUntil calls done every lifecyclePoll until it reports true or timeout
// elapses.
func pollUntil(timeout time.Duration, done func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if done() {
			return nil
		}
		if time.Now().After(deadline) {
			return errLifecycleTimeout
		}
		time.Sleep(lifecyclePoll)
	}
}

// findDaemonBinary resolves lullabyd from $PATH, then next to the lullaby
// executable, then ./build for a dev checkout.
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}

	candidates := []string{filepath.Join("build", daemonBinary)}
	if self, err := os.Executable(); err == nil {
		if sibling, ok := siblingBinary(self); ok {
			candidates = append([]string{sibling}, candidates...)
		}
	}
	for _, c := range candidates {
		if config.FileExists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("cannot find %s in $PATH or next to %s", daemonBinary, cliBinary)
}

// siblingBinary maps .../lullaby[.exe] to .../lullabyd[.exe].
func siblingBinary(execPath string) (string, bool) {
	dir, base := filepath.Split(execPath)
	ext := filepath.Ext(base)
	if strings.TrimSuffix(base, ext) != cliBinary {
		return "", false
	}
	return filepath.Join(dir, daemonBinary+ext), true
}

// GetDaemonStatus reports whether lullabyd is alive and, if so, where.
func GetDaemonStatus() (bool, *DaemonStatusInfo, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil || !running {
		return false, nil, err
	}
	return true, statusInfo(info), nil
}

// DaemonStatusInfo is what the CLI shows about a running lullabyd.
type DaemonStatusInfo struct {
	Host       string
	Port       int
	PID        int
	InstanceID string
	StartedAt  time.Time
}

func statusInfo(info *models.DaemonInfo) *DaemonStatusInfo {
	if info == nil {
		return nil
	}
	return &DaemonStatusInfo{
		Host:       info.Host,
		Port:       info.Port,
		PID:        info.PID,
		InstanceID: info.InstanceID,
		StartedAt:  info.StartedAt,
	}
}

// Uptime is how long the instance has been serving, to the second.
func (i *DaemonStatusInfo) Uptime(now time.Time) time.Duration {
	return now.Sub(i.StartedAt).Truncate(time.Second)
}
