package models

// Category is one of the two independent audio roles.
type Category string

const (
	CategoryBackground Category = "background"
	CategoryLofi       Category = "lofi"
)

// Categories lists every category in refill order.
var Categories = []Category{CategoryBackground, CategoryLofi}

// Subdir returns the fixed subdirectory of the track root holding this category.
func (c Category) Subdir() string {
	switch c {
	case CategoryBackground:
		return "backgroundSound"
	case CategoryLofi:
		return "lofiMusic"
	default:
		return string(c)
	}
}

// DefaultVolume returns the linear gain used when settings don't override it.
func (c Category) DefaultVolume() float64 {
	switch c {
	case CategoryBackground:
		return 0.15
	case CategoryLofi:
		return 0.25
	default:
		return 1
	}
}

// PlaybackState is the controller-level play/pause state.
type PlaybackState int

const (
	StatePlaying PlaybackState = iota
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// ChannelStatus describes one playback channel at the end of a tick.
type ChannelStatus struct {
	Category  Category
	Dir       string
	Queued    int
	Paused    bool
	LastTrack string // base name of the most recently enqueued file
}

// PlaybackStatus is a point-in-time view of the controller.
type PlaybackStatus struct {
	State     PlaybackState
	TrackRoot string
	Ticks     uint64
	Channels  []ChannelStatus
}

// Channel returns the status of the given category, if present.
func (s *PlaybackStatus) Channel(c Category) (ChannelStatus, bool) {
	for _, ch := range s.Channels {
		if ch.Category == c {
			return ch, true
		}
	}
	return ChannelStatus{}, false
}
