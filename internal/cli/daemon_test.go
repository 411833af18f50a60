package cli

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/models"
)

func TestPollUntil(t *testing.T) {
	calls := 0
	err := pollUntil(time.Second, func() bool {
		calls++
		return calls == 3
	})
	if err != nil {
		t.Fatalf("pollUntil() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	if err := pollUntil(10*time.Millisecond, func() bool { return false }); !errors.Is(err, errLifecycleTimeout) {
		t.Errorf("pollUntil(never) error = %v, want %v", err, errLifecycleTimeout)
	}
}

func TestDaemonStatusFromInfoFile(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	running, info, err := GetDaemonStatus()
	if err != nil || running || info != nil {
		t.Fatalf("GetDaemonStatus() with no daemon.yaml = %v, %v, %v", running, info, err)
	}

	// This test process stands in for a live lullabyd.
	saved := models.NewDaemonInfo("127.0.0.1", 4242, os.Getpid())
	if err := config.SaveDaemonInfo(saved); err != nil {
		t.Fatal(err)
	}

	running, info, err = GetDaemonStatus()
	if err != nil || !running {
		t.Fatalf("GetDaemonStatus() = %v, %v, %v; want running", running, info, err)
	}
	if info.Port != 4242 || info.InstanceID != saved.InstanceID {
		t.Errorf("info = %+v, want port 4242 instance %s", info, saved.InstanceID)
	}
	if up := info.Uptime(info.StartedAt.Add(1500 * time.Millisecond)); up != time.Second {
		t.Errorf("Uptime() = %v, want 1s", up)
	}
}

func TestLaunchDaemonReusesRunningInstance(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	t.Setenv("PATH", t.TempDir())

	saved := models.NewDaemonInfo("127.0.0.1", 4242, os.Getpid())
	if err := config.SaveDaemonInfo(saved); err != nil {
		t.Fatal(err)
	}

	// No lullabyd on PATH: reaching exec would fail.
	info, err := launchDaemon()
	if err != nil {
		t.Fatalf("launchDaemon() error = %v", err)
	}
	if info.InstanceID != saved.InstanceID {
		t.Errorf("InstanceID = %s, want %s", info.InstanceID, saved.InstanceID)
	}
}

func TestAwaitInstanceExit(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	old := models.NewDaemonInfo("127.0.0.1", 4242, os.Getpid())
	if err := config.SaveDaemonInfo(old); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(3 * lifecyclePoll)
		_ = config.RemoveDaemonInfo()
	}()
	if err := awaitInstanceExit(old.InstanceID); err != nil {
		t.Fatalf("awaitInstanceExit() after removal error = %v", err)
	}

	// A replacement instance also counts as the old one having exited.
	next := models.NewDaemonInfo("127.0.0.1", 4343, os.Getpid())
	if err := config.SaveDaemonInfo(next); err != nil {
		t.Fatal(err)
	}
	if err := awaitInstanceExit(old.InstanceID); err != nil {
		t.Errorf("awaitInstanceExit() with a new instance error = %v", err)
	}
}

func TestDaemonSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"start": false, "status": false, "stop": false}
	for _, c := range daemonCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("daemon %s not registered", name)
		}
	}
}
