// Package source picks random tracks from a category directory.
package source

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

// readChunk bounds how many directory entries are held in memory at once.
const readChunk = 64

var (
	// ErrDirectoryUnavailable is returned when a category directory cannot be read.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrFileUnreadable is returned when the picked file cannot be opened.
	ErrFileUnreadable = errors.New("file unreadable")
)

// Track is an opened audio file ready to be decoded.
type Track struct {
	Path string
	io.ReadCloser
}

// Name returns the base name of the track file.
func (t *Track) Name() string {
	return filepath.Base(t.Path)
}

// Ext returns the lower-cased file extension, including the dot.
func (t *Track) Ext() string {
	return strings.ToLower(filepath.Ext(t.Path))
}

// Source selects tracks uniformly at random.
// A Source is not safe for concurrent use; the controller owns it.
type Source struct {
	rng    *rand.Rand
	accept func(name string) bool
	open   func(path string) (io.ReadCloser, error)
}

// Option configures a Source.
type Option func(*Source)

// WithRand sets the random generator (tests use a seeded one).
func WithRand(rng *rand.Rand) Option {
	return func(s *Source) { s.rng = rng }
}

// WithExtensions restricts eligible files to the given extensions
// (case-insensitive, with or without the leading dot).
func WithExtensions(exts ...string) Option {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return func(s *Source) {
		s.accept = func(name string) bool {
			_, ok := allowed[strings.ToLower(filepath.Ext(name))]
			return ok
		}
	}
}

// New creates a Source. Without WithExtensions every regular file is eligible.
func New(opts ...Option) *Source {
	s := &Source{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		accept: func(string) bool { return true },
		open:   func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pick returns one eligible file from dir, chosen uniformly at random, opened
// for reading. It returns (nil, nil) when dir holds no eligible entries.
func (s *Source) Pick(dir string) (*Track, error) {
	path, err := s.choose(dir)
	if err != nil || path == "" {
		return nil, err
	}

	rc, err := s.open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileUnreadable, path, err)
	}
	return &Track{Path: path, ReadCloser: rc}, nil
}

// choose reservoir-samples the directory listing so memory stays bounded
// regardless of how many files the directory holds.
func (s *Source) choose(dir string) (string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	defer d.Close()

	var (
		chosen string
		seen   int
	)
	for {
		entries, err := d.ReadDir(readChunk)
		for _, e := range entries {
			if !s.eligible(e) {
				continue
			}
			seen++
			if s.rng.IntN(seen) == 0 {
				chosen = e.Name()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, dir, err)
		}
	}

	if chosen == "" {
		return "", nil
	}
	return filepath.Join(dir, chosen), nil
}

func (s *Source) eligible(e os.DirEntry) bool {
	name := e.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}
	// Symlinks are followed at open time; only directories are excluded here.
	if e.IsDir() || !(e.Type().IsRegular() || e.Type()&os.ModeSymlink != 0) {
		return false
	}
	return s.accept(name)
}
