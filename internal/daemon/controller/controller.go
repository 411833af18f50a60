// Package controller runs the playback loop that keeps both audio channels
// supplied with tracks and applies play/pause/directory commands.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/daemon/playback"
	"github.com/lullaby-fm/lullaby/internal/daemon/source"
	"github.com/lullaby-fm/lullaby/internal/models"
	"github.com/lullaby-fm/lullaby/internal/telemetry"
)

// Options configures a Controller.
type Options struct {
	TrackRoot    string
	TickInterval time.Duration // zero means models.DefaultTickInterval
	StartPaused  bool
	Volumes      models.VolumeConfig
	Source       *source.Source     // nil picks any file with a known decoder
	Metrics      *telemetry.Metrics // optional
}

// OptionsFromSettings builds Options from persisted settings.
func OptionsFromSettings(settings *models.Settings, trackRoot string) Options {
	return Options{
		TrackRoot:    trackRoot,
		TickInterval: settings.Playback.TickInterval,
		StartPaused:  settings.Playback.StartPaused,
		Volumes:      settings.Playback.Volumes,
	}
}

// slot pairs a channel with the directory it is refilled from.
type slot struct {
	channel *playback.Channel
	dir     string
	failure string // last refill failure reason, for log de-duplication
}

// Controller owns both playback channels. All fields below inbox are only
// touched by the goroutine running Run.
type Controller struct {
	out     playback.Output
	tick    time.Duration
	source  *source.Source
	metrics *telemetry.Metrics
	logger  zerolog.Logger
	inbox   *inbox

	root  string
	state models.PlaybackState
	slots []*slot
	ticks uint64

	status    atomic.Pointer[models.PlaybackStatus]
	done      chan struct{}
	closeOnce sync.Once
}

// Open opens the default audio device and creates a controller on it.
// Failing to acquire the device is the only fatal playback error.
func Open(opts Options, logger zerolog.Logger) (*Controller, error) {
	out, err := playback.OpenSpeaker(playback.DefaultSampleRate, playback.SpeakerBufferSize)
	if err != nil {
		return nil, err
	}
	return New(out, opts, logger), nil
}

// New creates a controller that plays into out.
func New(out playback.Output, opts Options, logger zerolog.Logger) *Controller {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = models.DefaultTickInterval
	}
	src := opts.Source
	if src == nil {
		src = source.New(source.WithExtensions(playback.SupportedExtensions()...))
	}

	c := &Controller{
		out:     out,
		tick:    tick,
		source:  src,
		metrics: opts.Metrics,
		logger:  logger,
		inbox:   &inbox{},
		state:   models.StatePlaying,
		done:    make(chan struct{}),
	}

	for _, category := range models.Categories {
		level := opts.Volumes.For(category)
		if level <= 0 {
			level = category.DefaultVolume()
		}
		c.slots = append(c.slots, &slot{
			channel: playback.NewChannel(category, level, out, logger),
		})
	}
	c.setRoot(opts.TrackRoot)

	if opts.StartPaused {
		c.pause()
	}
	c.publish()
	return c
}

// Sender returns a handle for pushing commands to this controller.
func (c *Controller) Sender() Sender {
	return Sender{inbox: c.inbox}
}

// TickInterval returns the polling interval; it bounds command latency.
func (c *Controller) TickInterval() time.Duration {
	return c.tick
}

// Status returns the state published at the end of the last tick.
func (c *Controller) Status() models.PlaybackStatus {
	return *c.status.Load()
}

// Done is closed once Run has returned and the output is released.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run drives the loop until a Shutdown command arrives or ctx is cancelled.
// The first tick runs immediately so channels fill without waiting.
func (c *Controller) Run(ctx context.Context) error {
	defer c.release()

	c.logger.Info().
		Str("track_root", c.root).
		Dur("tick", c.tick).
		Str("state", c.state.String()).
		Msg("Playback controller started")

	if !c.step() {
		return nil
	}

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Playback controller cancelled")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if !c.step() {
				return nil
			}
		}
	}
}

// step runs one tick: apply at most one command, then refill empty
// channels. It returns false when the controller should exit.
func (c *Controller) step() bool {
	c.ticks++
	c.metrics.Tick()

	if cmd, ok := c.inbox.pop(); ok {
		if !c.apply(cmd) {
			return false
		}
	}

	for _, s := range c.slots {
		c.refill(s)
	}
	c.publish()
	return true
}

func (c *Controller) apply(cmd Command) bool {
	c.metrics.CommandProcessed(cmd.Kind.String())

	switch cmd.Kind {
	case CommandPlay:
		c.play()
		c.logger.Info().Msg("Playing")
	case CommandPause:
		c.pause()
		c.logger.Info().Msg("Paused")
	case CommandSetDirectory:
		if cmd.Path == "" {
			c.logger.Warn().Msg("Ignoring empty track directory")
			return true
		}
		if cmd.Path == c.root {
			c.logger.Debug().Str("track_root", cmd.Path).Msg("Track directory unchanged")
			return true
		}
		c.setRoot(cmd.Path)
		c.logger.Info().Str("track_root", cmd.Path).Msg("Track directory changed")
	case CommandShutdown:
		c.logger.Info().Msg("Shutdown requested")
		return false
	default:
		c.logger.Warn().Int("kind", int(cmd.Kind)).Msg("Unknown command")
	}
	return true
}

func (c *Controller) play() {
	c.state = models.StatePlaying
	for _, s := range c.slots {
		s.channel.Play()
	}
}

func (c *Controller) pause() {
	c.state = models.StatePaused
	for _, s := range c.slots {
		s.channel.Pause()
	}
}

// setRoot re-derives every category directory from root. Already queued
// audio keeps playing; only the next refill reads from the new location.
func (c *Controller) setRoot(root string) {
	c.root = root
	for _, s := range c.slots {
		s.dir = config.CategoryDir(root, s.channel.Category())
		s.failure = ""
	}
}

// refill tops up an empty channel. Every failure leaves the channel empty
// so the next tick retries with a fresh pick.
func (c *Controller) refill(s *slot) {
	if !s.channel.IsEmpty() {
		return
	}

	category := string(s.channel.Category())
	track, err := c.source.Pick(s.dir)
	if err != nil {
		reason := telemetry.ReasonDirectoryUnavailable
		if errors.Is(err, source.ErrFileUnreadable) {
			reason = telemetry.ReasonFileUnreadable
		}
		c.refillFailed(s, reason, err)
		return
	}
	if track == nil {
		c.refillFailed(s, telemetry.ReasonNoTrack, nil)
		return
	}

	if err := s.channel.Enqueue(track); err != nil {
		c.refillFailed(s, telemetry.ReasonUnsupportedFormat, err)
		return
	}
	s.failure = ""
	c.metrics.TrackEnqueued(category)
}

// refillFailed logs a failure at warn level the first time a reason is seen
// for a slot and at debug level while it persists.
func (c *Controller) refillFailed(s *slot, reason string, err error) {
	c.metrics.RefillFailed(string(s.channel.Category()), reason)

	ev := c.logger.Debug()
	if reason != s.failure {
		ev = c.logger.Warn()
	}
	// A different bad file each tick is worth a warning every time.
	if reason == telemetry.ReasonUnsupportedFormat || reason == telemetry.ReasonFileUnreadable {
		ev = c.logger.Warn()
	}
	s.failure = reason

	ev.Err(err).
		Str("channel", string(s.channel.Category())).
		Str("dir", s.dir).
		Str("reason", reason).
		Msg("Channel not refilled")
}

func (c *Controller) publish() {
	status := &models.PlaybackStatus{
		State:     c.state,
		TrackRoot: c.root,
		Ticks:     c.ticks,
		Channels:  make([]models.ChannelStatus, 0, len(c.slots)),
	}
	for _, s := range c.slots {
		queued := s.channel.Len()
		status.Channels = append(status.Channels, models.ChannelStatus{
			Category:  s.channel.Category(),
			Dir:       s.dir,
			Queued:    queued,
			Paused:    s.channel.Paused(),
			LastTrack: s.channel.LastTrack(),
		})
		c.metrics.SetQueueDepth(string(s.channel.Category()), queued)
	}
	c.metrics.SetPlaying(c.state == models.StatePlaying)
	c.status.Store(status)
}

// Close releases the audio output without running the loop. It is for
// callers that created a controller but never called Run; after Run has
// started, send Shutdown or cancel its context instead.
func (c *Controller) Close() {
	c.release()
}

func (c *Controller) release() {
	c.closeOnce.Do(func() {
		c.inbox.close()
		for _, s := range c.slots {
			s.channel.Clear()
		}
		c.out.Close()
		c.publish()
		close(c.done)
		c.logger.Info().Msg("Playback controller stopped")
	})
}
