package models

import "time"

// DefaultTickInterval is how often the playback controller polls its inbox
// and refills empty channels. Commands wait at most one interval.
const DefaultTickInterval = 500 * time.Millisecond

// Tick interval bounds accepted from settings.yaml.
const (
	MinTickInterval = 50 * time.Millisecond
	MaxTickInterval = 10 * time.Second
)

// VolumeConfig holds the linear gain for each category (0.0 to 1.0).
type VolumeConfig struct {
	Background float64 `yaml:"background"`
	Lofi       float64 `yaml:"lofi"`
}

// For returns the configured volume of a category.
func (v VolumeConfig) For(c Category) float64 {
	switch c {
	case CategoryBackground:
		return v.Background
	case CategoryLofi:
		return v.Lofi
	default:
		return 0
	}
}

// PlaybackConfig holds playback tunables.
type PlaybackConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	StartPaused  bool          `yaml:"start_paused"`
	Volumes      VolumeConfig  `yaml:"volumes"`
}

// Settings represents global application settings.
// This corresponds to ~/.lullaby/settings.yaml.
type Settings struct {
	Version   int            `yaml:"version"`
	TrackRoot string         `yaml:"track_root"` // empty = ~/.lullaby/tracks
	Playback  PlaybackConfig `yaml:"playback"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:   1,
		TrackRoot: "",
		Playback: PlaybackConfig{
			TickInterval: DefaultTickInterval,
			StartPaused:  false,
			Volumes: VolumeConfig{
				Background: CategoryBackground.DefaultVolume(),
				Lofi:       CategoryLofi.DefaultVolume(),
			},
		},
	}
}

// Normalize replaces out-of-range values with defaults.
func (s *Settings) Normalize() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Playback.TickInterval == 0 {
		s.Playback.TickInterval = DefaultTickInterval
	}
	if s.Playback.TickInterval < MinTickInterval {
		s.Playback.TickInterval = MinTickInterval
	}
	if s.Playback.TickInterval > MaxTickInterval {
		s.Playback.TickInterval = MaxTickInterval
	}
	s.Playback.Volumes.Background = clampVolume(s.Playback.Volumes.Background, CategoryBackground)
	s.Playback.Volumes.Lofi = clampVolume(s.Playback.Volumes.Lofi, CategoryLofi)
}

func clampVolume(v float64, c Category) float64 {
	if v <= 0 || v > 1 {
		return c.DefaultVolume()
	}
	return v
}
