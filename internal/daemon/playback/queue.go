package playback

import (
	"io"

	"github.com/gopxl/beep/v2"
)

// queued is one decoded track waiting in (or playing from) a queue.
type queued struct {
	name     string
	streamer beep.Streamer
	closers  []io.Closer
}

func (q *queued) close() {
	for _, c := range q.closers {
		_ = c.Close()
	}
}

// queue plays its tracks back to back and streams silence when empty, so it
// can stay attached to the output for the life of the process.
type queue struct {
	tracks []*queued
	onDone func(name string, err error)
}

func (q *queue) push(t *queued) {
	q.tracks = append(q.tracks, t)
}

func (q *queue) len() int {
	return len(q.tracks)
}

func (q *queue) clear() {
	for _, t := range q.tracks {
		t.close()
	}
	q.tracks = nil
}

// Stream implements beep.Streamer.
func (q *queue) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	for filled < len(samples) {
		if len(q.tracks) == 0 {
			for i := filled; i < len(samples); i++ {
				samples[i] = [2]float64{}
			}
			break
		}

		head := q.tracks[0]
		n, ok := head.streamer.Stream(samples[filled:])
		filled += n
		if !ok || n == 0 || atEnd(head.streamer) {
			q.tracks[0] = nil
			q.tracks = q.tracks[1:]
			head.close()
			if q.onDone != nil {
				q.onDone(head.name, head.streamer.Err())
			}
		}
	}
	return len(samples), true
}

// atEnd reports whether a seekable streamer has nothing left to play, so a
// finished track leaves the queue in the same pull that drained it.
// Other streamers are dropped once they report (0, false).
func atEnd(s beep.Streamer) bool {
	ss, ok := s.(beep.StreamSeeker)
	return ok && ss.Position() >= ss.Len()
}

// Err implements beep.Streamer.
func (q *queue) Err() error {
	return nil
}
