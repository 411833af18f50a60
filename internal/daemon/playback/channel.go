package playback

import (
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/daemon/source"
	"github.com/lullaby-fm/lullaby/internal/models"
)

// resampleQuality is the beep.Resample quality used for rate conversion.
const resampleQuality = 4

// Channel is a continuously draining queue of tracks for one category,
// played at a fixed volume. Enqueue, Play and Pause are called from the
// controller goroutine; the output goroutine drains the queue.
type Channel struct {
	category models.Category
	level    float64
	out      Output
	queue    *queue
	ctrl     *beep.Ctrl
	logger   zerolog.Logger

	lastTrack string
}

// NewChannel attaches a new, empty channel to out at the given linear volume.
func NewChannel(category models.Category, level float64, out Output, logger zerolog.Logger) *Channel {
	logger = logger.With().Str("channel", string(category)).Logger()
	q := &queue{
		onDone: func(name string, err error) {
			if err != nil {
				logger.Warn().Err(err).Str("track", name).Msg("Track ended with error")
				return
			}
			logger.Debug().Str("track", name).Msg("Track finished")
		},
	}
	ctrl := &beep.Ctrl{Streamer: q}

	c := &Channel{
		category: category,
		level:    level,
		out:      out,
		queue:    q,
		ctrl:     ctrl,
		logger:   logger,
	}
	out.Play(volumeFor(ctrl, level))
	return c
}

// volumeFor maps a linear gain onto beep's exponential volume effect.
func volumeFor(s beep.Streamer, level float64) *effects.Volume {
	v := &effects.Volume{Streamer: s, Base: 2}
	if level <= 0 {
		v.Silent = true
		return v
	}
	v.Volume = math.Log2(level)
	return v
}

// Category returns the category this channel plays.
func (c *Channel) Category() models.Category { return c.category }

// Level returns the channel's linear volume.
func (c *Channel) Level() float64 { return c.level }

// LastTrack returns the name of the most recently enqueued track.
func (c *Channel) LastTrack() string { return c.lastTrack }

// IsEmpty reports whether no queued audio remains.
func (c *Channel) IsEmpty() bool {
	return c.Len() == 0
}

// Len returns the number of queued tracks, including the one playing.
func (c *Channel) Len() int {
	c.out.Lock()
	defer c.out.Unlock()
	return c.queue.len()
}

// Enqueue decodes the track and appends it to the queue. The track is
// closed on failure and once it has finished playing.
func (c *Channel) Enqueue(t *source.Track) error {
	streamer, format, err := Decode(t)
	if err != nil {
		return err
	}

	var s beep.Streamer = streamer
	if rate := c.out.SampleRate(); format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, streamer)
	}

	c.push(&queued{name: t.Name(), streamer: s, closers: []io.Closer{streamer, t}})
	c.lastTrack = t.Name()
	c.logger.Info().
		Str("track", t.Name()).
		Int("sample_rate", int(format.SampleRate)).
		Msg("Queued track")
	return nil
}

func (c *Channel) push(q *queued) {
	c.out.Lock()
	c.queue.push(q)
	c.out.Unlock()
}

// Play resumes the channel. Calling it while playing is a no-op.
func (c *Channel) Play() {
	c.setPaused(false)
}

// Pause halts the channel without discarding queued audio.
func (c *Channel) Pause() {
	c.setPaused(true)
}

// Paused reports whether the channel is paused.
func (c *Channel) Paused() bool {
	c.out.Lock()
	defer c.out.Unlock()
	return c.ctrl.Paused
}

func (c *Channel) setPaused(paused bool) {
	c.out.Lock()
	c.ctrl.Paused = paused
	c.out.Unlock()
}

// Clear drops and closes every queued track.
func (c *Channel) Clear() {
	c.out.Lock()
	c.queue.clear()
	c.out.Unlock()
}

// String implements fmt.Stringer.
func (c *Channel) String() string {
	return fmt.Sprintf("%s@%.2f", c.category, c.level)
}
