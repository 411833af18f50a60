package controller

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/daemon/playback"
	"github.com/lullaby-fm/lullaby/internal/daemon/playback/playbacktest"
	"github.com/lullaby-fm/lullaby/internal/daemon/source"
	"github.com/lullaby-fm/lullaby/internal/models"
	"github.com/lullaby-fm/lullaby/internal/telemetry"
)

const testRate = beep.SampleRate(8000)

// trackFrames is long enough that no test drains a track by accident.
const trackFrames = 4000

// makeRoot creates a track root holding the given files per category.
func makeRoot(t *testing.T, background, lofi []string) string {
	t.Helper()
	root := t.TempDir()
	for category, names := range map[models.Category][]string{
		models.CategoryBackground: background,
		models.CategoryLofi:       lofi,
	} {
		dir := filepath.Join(root, category.Subdir())
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		for _, name := range names {
			playbacktest.WriteWAV(t, filepath.Join(dir, name), trackFrames, testRate)
		}
	}
	return root
}

func newTestController(t *testing.T, root string, opts Options) (*Controller, *playbacktest.Output) {
	t.Helper()
	out := playbacktest.NewOutput(testRate)
	opts.TrackRoot = root
	if opts.Source == nil {
		opts.Source = source.New(
			source.WithRand(rand.New(rand.NewPCG(7, 11))),
			source.WithExtensions(playback.SupportedExtensions()...),
		)
	}
	return New(out, opts, zerolog.Nop()), out
}

func channelStatus(t *testing.T, c *Controller, category models.Category) models.ChannelStatus {
	t.Helper()
	status := c.Status()
	ch, ok := status.Channel(category)
	if !ok {
		t.Fatalf("no status for %s", category)
	}
	return ch
}

func TestFillsBothChannelsOnFirstTick(t *testing.T) {
	root := makeRoot(t, []string{"a.wav", "b.wav"}, []string{"c.wav"})
	c, _ := newTestController(t, root, Options{})

	if !c.step() {
		t.Fatal("step asked to exit")
	}

	bg := channelStatus(t, c, models.CategoryBackground)
	if bg.Queued != 1 || (bg.LastTrack != "a.wav" && bg.LastTrack != "b.wav") {
		t.Errorf("background = %+v", bg)
	}
	lofi := channelStatus(t, c, models.CategoryLofi)
	if lofi.Queued != 1 || lofi.LastTrack != "c.wav" {
		t.Errorf("lofi = %+v", lofi)
	}
	if c.Status().State != models.StatePlaying {
		t.Errorf("state = %v, want playing", c.Status().State)
	}
}

func TestPauseKeepsQueuedAudioAndPlayResumes(t *testing.T) {
	root := makeRoot(t, []string{"a.wav", "b.wav"}, []string{"c.wav"})
	c, out := newTestController(t, root, Options{})
	sender := c.Sender()

	c.step()
	out.Drain(1000)

	if err := sender.Pause(); err != nil {
		t.Fatal(err)
	}
	c.step()

	status := c.Status()
	if status.State != models.StatePaused {
		t.Fatalf("state = %v, want paused", status.State)
	}
	for _, ch := range status.Channels {
		if !ch.Paused || ch.Queued != 1 {
			t.Errorf("%s = %+v, want paused with one queued track", ch.Category, ch)
		}
	}

	// Paused channels hold their position: after resuming, the remaining
	// 3000 frames still need to play before the queue empties.
	out.Drain(trackFrames * 2)
	for _, ch := range c.Status().Channels {
		if ch.Queued != 1 {
			t.Errorf("%s drained while paused", ch.Category)
		}
	}

	if err := sender.Play(); err != nil {
		t.Fatal(err)
	}
	c.step()
	out.Drain(trackFrames - 1000 - 100)
	for _, s := range c.slots {
		if s.channel.IsEmpty() {
			t.Errorf("%s finished before its remaining frames played", s.channel.Category())
		}
	}
	out.Drain(200)
	for _, s := range c.slots {
		if !s.channel.IsEmpty() {
			t.Errorf("%s should have finished its first track", s.channel.Category())
		}
	}

	// The next tick refills both.
	c.step()
	for _, ch := range c.Status().Channels {
		if ch.Queued != 1 {
			t.Errorf("%s not refilled: %+v", ch.Category, ch)
		}
	}
}

func TestPlayPauseIdempotent(t *testing.T) {
	tests := []struct {
		name     string
		commands []Command
		expected models.PlaybackState
	}{
		{name: "pause twice", commands: []Command{Pause(), Pause()}, expected: models.StatePaused},
		{name: "play while playing", commands: []Command{Play()}, expected: models.StatePlaying},
		{name: "pause then play twice", commands: []Command{Pause(), Play(), Play()}, expected: models.StatePlaying},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(t, makeRoot(t, nil, nil), Options{})
			for _, cmd := range tt.commands {
				if err := c.Sender().Send(cmd); err != nil {
					t.Fatal(err)
				}
				c.step()
			}
			status := c.Status()
			if status.State != tt.expected {
				t.Errorf("state = %v, want %v", status.State, tt.expected)
			}
			for _, ch := range status.Channels {
				if ch.Paused != (tt.expected == models.StatePaused) {
					t.Errorf("%s paused = %v", ch.Category, ch.Paused)
				}
			}
		})
	}
}

func TestOneCommandPerTickInOrder(t *testing.T) {
	c, _ := newTestController(t, makeRoot(t, nil, nil), Options{})
	sender := c.Sender()
	for _, cmd := range []Command{Pause(), Play(), Pause()} {
		if err := sender.Send(cmd); err != nil {
			t.Fatal(err)
		}
	}

	want := []models.PlaybackState{models.StatePaused, models.StatePlaying, models.StatePaused, models.StatePaused}
	for i, expected := range want {
		c.step()
		if got := c.Status().State; got != expected {
			t.Errorf("tick %d: state = %v, want %v", i+1, got, expected)
		}
	}
}

func TestSetDirectoryRedirectsNextRefill(t *testing.T) {
	oldRoot := makeRoot(t, []string{"old-bg.wav"}, []string{"old-lofi.wav"})
	newRoot := makeRoot(t, []string{"new-bg.wav"}, []string{"new-lofi.wav"})
	c, out := newTestController(t, oldRoot, Options{})

	c.step()
	if got := channelStatus(t, c, models.CategoryLofi).LastTrack; got != "old-lofi.wav" {
		t.Fatalf("lofi track = %q", got)
	}

	if err := c.Sender().SetDirectory(newRoot); err != nil {
		t.Fatal(err)
	}
	c.step()

	// Queued audio from the old root is not touched.
	status := c.Status()
	if status.TrackRoot != newRoot {
		t.Errorf("TrackRoot = %q, want %q", status.TrackRoot, newRoot)
	}
	for _, ch := range status.Channels {
		if !strings.HasPrefix(ch.LastTrack, "old-") || ch.Queued != 1 {
			t.Errorf("%s = %+v, want old track still queued", ch.Category, ch)
		}
		if want := filepath.Join(newRoot, ch.Category.Subdir()); ch.Dir != want {
			t.Errorf("%s dir = %q, want %q", ch.Category, ch.Dir, want)
		}
	}

	out.Drain(trackFrames + 100)
	c.step()
	for _, ch := range c.Status().Channels {
		if !strings.HasPrefix(ch.LastTrack, "new-") {
			t.Errorf("%s refilled with %q, want a track from the new root", ch.Category, ch.LastTrack)
		}
	}
}

func TestEmptyDirectoryRecoversWhenFileAppears(t *testing.T) {
	root := makeRoot(t, []string{"a.wav"}, nil)
	c, _ := newTestController(t, root, Options{})

	for i := 0; i < 3; i++ {
		c.step()
		if got := channelStatus(t, c, models.CategoryLofi).Queued; got != 0 {
			t.Fatalf("tick %d: lofi queued = %d, want 0", i+1, got)
		}
	}

	playbacktest.WriteWAV(t, filepath.Join(root, "lofiMusic", "late.wav"), trackFrames, testRate)
	c.step()
	lofi := channelStatus(t, c, models.CategoryLofi)
	if lofi.Queued != 1 || lofi.LastTrack != "late.wav" {
		t.Errorf("lofi = %+v, want late.wav queued", lofi)
	}
}

func TestMissingDirectoriesAreRetried(t *testing.T) {
	metrics := telemetry.NewMetrics()
	c, _ := newTestController(t, filepath.Join(t.TempDir(), "missing"), Options{Metrics: metrics})

	for i := 0; i < 5; i++ {
		if !c.step() {
			t.Fatal("step asked to exit")
		}
	}
	for _, ch := range c.Status().Channels {
		if ch.Queued != 0 {
			t.Errorf("%s queued = %d, want 0", ch.Category, ch.Queued)
		}
	}
}

func TestUndecodableTrackLeavesChannelEmpty(t *testing.T) {
	root := makeRoot(t, []string{"a.wav"}, nil)
	bad := filepath.Join(root, "lofiMusic", "broken.mp3")
	if err := os.WriteFile(bad, []byte("not an mp3"), 0644); err != nil {
		t.Fatal(err)
	}
	c, _ := newTestController(t, root, Options{})

	c.step()
	c.step()
	if got := channelStatus(t, c, models.CategoryLofi).Queued; got != 0 {
		t.Errorf("lofi queued = %d, want 0", got)
	}
	if got := channelStatus(t, c, models.CategoryBackground).Queued; got != 1 {
		t.Errorf("background queued = %d, want 1", got)
	}
}

func TestSetDirectoryIgnoresEmptyPath(t *testing.T) {
	root := makeRoot(t, nil, nil)
	c, _ := newTestController(t, root, Options{})
	if err := c.Sender().SetDirectory(""); err != nil {
		t.Fatal(err)
	}
	c.step()
	if got := c.Status().TrackRoot; got != root {
		t.Errorf("TrackRoot = %q, want %q", got, root)
	}
}

func TestStartPaused(t *testing.T) {
	root := makeRoot(t, []string{"a.wav"}, []string{"b.wav"})
	c, _ := newTestController(t, root, Options{StartPaused: true})

	c.step()
	status := c.Status()
	if status.State != models.StatePaused {
		t.Fatalf("state = %v, want paused", status.State)
	}
	for _, ch := range status.Channels {
		if ch.Queued != 1 || !ch.Paused {
			t.Errorf("%s = %+v, want filled and paused", ch.Category, ch)
		}
	}
}

func TestRunStopsOnShutdown(t *testing.T) {
	root := makeRoot(t, []string{"a.wav"}, []string{"b.wav"})
	c, out := newTestController(t, root, Options{TickInterval: 5 * time.Millisecond})

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	if err := c.Sender().Shutdown(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}

	<-c.Done()
	if !out.Closed() {
		t.Error("output not released")
	}
	if err := c.Sender().Play(); !errors.Is(err, ErrStopped) {
		t.Errorf("Send after stop = %v, want ErrStopped", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	c, out := newTestController(t, makeRoot(t, nil, nil), Options{TickInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}
	if !out.Closed() {
		t.Error("output not released")
	}
}

func TestCloseWithoutRun(t *testing.T) {
	root := makeRoot(t, []string{"a.wav"}, nil)
	c, out := newTestController(t, root, Options{})

	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
	if !out.Closed() {
		t.Error("output not released")
	}
	if err := c.Sender().Play(); !errors.Is(err, ErrStopped) {
		t.Errorf("Play after Close = %v, want ErrStopped", err)
	}
}

func TestRunAppliesCommandsWithinATick(t *testing.T) {
	root := makeRoot(t, []string{"a.wav"}, []string{"b.wav"})
	c, _ := newTestController(t, root, Options{TickInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	defer func() {
		cancel()
		<-c.Done()
	}()

	if err := c.Sender().Pause(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for c.Status().State != models.StatePaused {
		if time.Now().After(deadline) {
			t.Fatal("pause never applied")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInboxIsUnbounded(t *testing.T) {
	c, _ := newTestController(t, makeRoot(t, nil, nil), Options{})
	sender := c.Sender()
	for i := 0; i < 10000; i++ {
		if err := sender.Pause(); err != nil {
			t.Fatal(err)
		}
	}
	if got := c.inbox.len(); got != 10000 {
		t.Errorf("inbox len = %d, want 10000", got)
	}
}

func TestZeroSenderReportsStopped(t *testing.T) {
	var s Sender
	if err := s.Play(); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

func TestCommandKindString(t *testing.T) {
	tests := []struct {
		kind     CommandKind
		expected string
	}{
		{CommandPlay, "play"},
		{CommandPause, "pause"},
		{CommandSetDirectory, "set_directory"},
		{CommandShutdown, "shutdown"},
		{CommandKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}
