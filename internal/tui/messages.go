package tui

import "github.com/lullaby-fm/lullaby/internal/daemon/server"

// StatusMsg carries playback status from GetStatus.
type StatusMsg struct {
	Status *server.DaemonStatus
}

// ActionDoneMsg signals a control call succeeded.
type ActionDoneMsg struct {
	Notice string
}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// tickMsg triggers the next status poll.
type tickMsg struct{}
