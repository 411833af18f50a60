package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lullaby-fm/lullaby/internal/models"
)

func TestLoadSettingsDefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.Playback.TickInterval != models.DefaultTickInterval {
		t.Errorf("TickInterval = %v, want %v", settings.Playback.TickInterval, models.DefaultTickInterval)
	}

	root, err := ResolveTrackRoot(settings)
	if err != nil {
		t.Fatalf("ResolveTrackRoot: %v", err)
	}
	if want := filepath.Join(home, TracksDirName); root != want {
		t.Errorf("track root = %q, want %q", root, want)
	}
}

func TestSaveTrackRootRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	music := filepath.Join(t.TempDir(), "music")

	saved, err := SaveTrackRoot(music)
	if err != nil {
		t.Fatalf("SaveTrackRoot: %v", err)
	}
	if saved != music {
		t.Errorf("saved = %q, want %q", saved, music)
	}

	root, err := LoadTrackRoot()
	if err != nil {
		t.Fatalf("LoadTrackRoot: %v", err)
	}
	if root != music {
		t.Errorf("LoadTrackRoot = %q, want %q", root, music)
	}

	// No temp files left behind by the atomic write
	entries, err := os.ReadDir(home)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != SettingsFileName {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("global dir entries = %v, want only %s", names, SettingsFileName)
	}
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	content := "track_root: /srv/ambient\nplayback:\n  tick_interval: 250ms\n"
	if err := os.WriteFile(filepath.Join(home, SettingsFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.TrackRoot != "/srv/ambient" {
		t.Errorf("TrackRoot = %q", settings.TrackRoot)
	}
	if settings.Playback.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", settings.Playback.TickInterval)
	}
	if settings.Playback.Volumes.Lofi != 0.25 {
		t.Errorf("Lofi volume = %v, want default 0.25", settings.Playback.Volumes.Lofi)
	}
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	if err := os.WriteFile(filepath.Join(home, SettingsFileName), []byte("playback: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCategoryDir(t *testing.T) {
	tests := []struct {
		category models.Category
		expected string
	}{
		{models.CategoryBackground, filepath.Join("/tracks", "backgroundSound")},
		{models.CategoryLofi, filepath.Join("/tracks", "lofiMusic")},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := CategoryDir("/tracks", tt.category); got != tt.expected {
				t.Errorf("CategoryDir = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDaemonInfoLifecycle(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	info := models.NewDaemonInfo("localhost", 4242, os.Getpid())
	if err := SaveDaemonInfo(info); err != nil {
		t.Fatalf("SaveDaemonInfo: %v", err)
	}

	running, loaded, err := IsDaemonRunning()
	if err != nil {
		t.Fatalf("IsDaemonRunning: %v", err)
	}
	if !running {
		t.Error("expected current process to be reported as running")
	}
	if loaded.Port != 4242 || loaded.InstanceID != info.InstanceID {
		t.Errorf("loaded = %+v, want port 4242 and instance %s", loaded, info.InstanceID)
	}

	if err := RemoveDaemonInfo(); err != nil {
		t.Fatalf("RemoveDaemonInfo: %v", err)
	}
	running, loaded, err = IsDaemonRunning()
	if err != nil || running || loaded != nil {
		t.Errorf("after remove: running=%v info=%v err=%v", running, loaded, err)
	}
}
