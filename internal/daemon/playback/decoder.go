package playback

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/lullaby-fm/lullaby/internal/daemon/source"
)

// ErrUnsupportedFormat is returned when a track can't be decoded.
var ErrUnsupportedFormat = errors.New("unsupported format")

type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".mp3": mp3.Decode,
	".ogg": vorbis.Decode,
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
	".flac": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(rc)
	},
}

// SupportedExtensions lists the file extensions that have a decoder.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Decode turns an opened track into a streamer. On error the track is
// closed; on success closing the returned streamer is the caller's job.
func Decode(t *source.Track) (s beep.StreamSeekCloser, format beep.Format, err error) {
	decode, ok := decoders[t.Ext()]
	if !ok {
		t.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s: no decoder for %q", ErrUnsupportedFormat, t.Path, t.Ext())
	}

	// Third-party decoders have been known to panic on truncated input.
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("%w: %s: decoder panic: %v", ErrUnsupportedFormat, t.Path, r)
		}
		if err != nil {
			t.Close()
		}
	}()

	s, format, err = decode(t)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, t.Path, err)
	}
	return s, format, nil
}
