package controller

import (
	"errors"
	"sync"
)

// ErrStopped is returned when sending to a controller that has exited.
var ErrStopped = errors.New("controller stopped")

// CommandKind identifies a control command.
type CommandKind int

const (
	CommandPlay CommandKind = iota
	CommandPause
	CommandSetDirectory
	CommandShutdown
)

func (k CommandKind) String() string {
	switch k {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandSetDirectory:
		return "set_directory"
	case CommandShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Command is a request for the controller. Path is only set for
// CommandSetDirectory.
type Command struct {
	Kind CommandKind
	Path string
}

// Play resumes both channels.
func Play() Command { return Command{Kind: CommandPlay} }

// Pause halts both channels, keeping queued audio.
func Pause() Command { return Command{Kind: CommandPause} }

// SetDirectory redirects future refills to path.
func SetDirectory(path string) Command {
	return Command{Kind: CommandSetDirectory, Path: path}
}

// Shutdown stops the controller loop and releases the audio output.
func Shutdown() Command { return Command{Kind: CommandShutdown} }

// inbox is an unbounded FIFO with many producers and one consumer.
type inbox struct {
	mu     sync.Mutex
	items  []Command
	closed bool
}

func (i *inbox) push(cmd Command) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrStopped
	}
	i.items = append(i.items, cmd)
	return nil
}

// pop never blocks; ok is false when the inbox is empty.
func (i *inbox) pop() (cmd Command, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.items) == 0 {
		return Command{}, false
	}
	cmd = i.items[0]
	i.items[0] = Command{}
	i.items = i.items[1:]
	return cmd, true
}

func (i *inbox) len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}

func (i *inbox) close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	i.items = nil
}

// Sender pushes commands into a controller's inbox. It is a small value
// that can be copied into any goroutine or closure.
type Sender struct {
	inbox *inbox
}

// Send enqueues cmd. It never blocks.
func (s Sender) Send(cmd Command) error {
	if s.inbox == nil {
		return ErrStopped
	}
	return s.inbox.push(cmd)
}

// Play sends a Play command.
func (s Sender) Play() error { return s.Send(Play()) }

// Pause sends a Pause command.
func (s Sender) Pause() error { return s.Send(Pause()) }

// SetDirectory sends a SetDirectory command.
func (s Sender) SetDirectory(path string) error { return s.Send(SetDirectory(path)) }

// Shutdown sends a Shutdown command.
func (s Sender) Shutdown() error { return s.Send(Shutdown()) }
