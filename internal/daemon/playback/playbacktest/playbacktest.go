// Package playbacktest provides an in-memory audio output and fixture
// helpers for tests that exercise playback without a sound card.
package playbacktest

import (
	"os"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Output is a playback.Output that mixes into memory. Samples only advance
// when Drain is called.
type Output struct {
	mu   sync.Mutex // guards streamer state, like speaker.Lock
	rate beep.SampleRate

	playMu    sync.Mutex
	streamers []beep.Streamer
	closed    bool
}

// NewOutput creates an output running at rate.
func NewOutput(rate beep.SampleRate) *Output {
	return &Output{rate: rate}
}

func (o *Output) SampleRate() beep.SampleRate { return o.rate }
func (o *Output) Lock()                       { o.mu.Lock() }
func (o *Output) Unlock()                     { o.mu.Unlock() }

// Play registers a streamer with the mixer.
func (o *Output) Play(s beep.Streamer) {
	o.playMu.Lock()
	defer o.playMu.Unlock()
	o.streamers = append(o.streamers, s)
}

// Close marks the output closed and detaches every streamer.
func (o *Output) Close() {
	o.playMu.Lock()
	defer o.playMu.Unlock()
	o.closed = true
	o.streamers = nil
}

// Closed reports whether Close was called.
func (o *Output) Closed() bool {
	o.playMu.Lock()
	defer o.playMu.Unlock()
	return o.closed
}

// Streamers returns the number of attached streamers.
func (o *Output) Streamers() int {
	o.playMu.Lock()
	defer o.playMu.Unlock()
	return len(o.streamers)
}

// Drain pulls frames samples through every attached streamer and returns
// their sum, the way the speaker mixer would.
func (o *Output) Drain(frames int) [][2]float64 {
	o.playMu.Lock()
	streamers := append([]beep.Streamer(nil), o.streamers...)
	o.playMu.Unlock()

	mixed := make([][2]float64, frames)
	buf := make([][2]float64, 512)

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range streamers {
		for off := 0; off < frames; {
			chunk := buf
			if rest := frames - off; rest < len(chunk) {
				chunk = chunk[:rest]
			}
			n, ok := s.Stream(chunk)
			for i := 0; i < n; i++ {
				mixed[off+i][0] += chunk[i][0]
				mixed[off+i][1] += chunk[i][1]
			}
			off += n
			if !ok || n == 0 {
				break
			}
		}
	}
	return mixed
}

// WriteWAV writes frames of silence at rate to path.
func WriteWAV(t testing.TB, path string, frames int, rate beep.SampleRate) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Silence(frames), format); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}
