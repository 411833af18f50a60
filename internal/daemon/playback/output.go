// Package playback implements the audio channels the controller refills.
package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	// DefaultSampleRate is the rate the speaker is opened at; tracks with a
	// different rate are resampled.
	DefaultSampleRate = beep.SampleRate(44100)

	// SpeakerBufferSize trades latency for resilience against scheduling hiccups.
	SpeakerBufferSize = 200 * time.Millisecond
)

// ErrNoAudioDevice is returned when the default output device can't be opened.
var ErrNoAudioDevice = errors.New("no audio device")

// Output is a mixing audio sink shared by all channels. Streamers passed to
// Play are pulled from the output's own goroutine, so any state they read
// must be guarded by Lock/Unlock.
type Output interface {
	SampleRate() beep.SampleRate
	Lock()
	Unlock()
	Play(s beep.Streamer)
	Close()
}

// Speaker is the default system output device.
type Speaker struct {
	rate      beep.SampleRate
	closeOnce sync.Once
}

// OpenSpeaker initializes the default output device.
func OpenSpeaker(rate beep.SampleRate, buffer time.Duration) (*Speaker, error) {
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAudioDevice, err)
	}
	return &Speaker{rate: rate}, nil
}

// SampleRate returns the rate the device was opened at.
func (s *Speaker) SampleRate() beep.SampleRate { return s.rate }

// Lock blocks the speaker from pulling samples.
func (s *Speaker) Lock() { speaker.Lock() }

// Unlock releases the speaker lock.
func (s *Speaker) Unlock() { speaker.Unlock() }

// Play adds a streamer to the speaker mixer.
func (s *Speaker) Play(st beep.Streamer) { speaker.Play(st) }

// Close stops playback and releases the device.
func (s *Speaker) Close() {
	s.closeOnce.Do(func() {
		speaker.Clear()
		speaker.Close()
	})
}
