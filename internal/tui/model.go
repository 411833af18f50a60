package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/lullaby-fm/lullaby/internal/daemon/server"
	"github.com/lullaby-fm/lullaby/internal/models"
)

// defaultWidth is used until the terminal reports its size.
const defaultWidth = 60

// Model is the now-playing view.
type Model struct {
	client  Client
	refresh time.Duration

	status *server.DaemonStatus
	notice string
	err    error

	editing bool
	input   textinput.Model
	help    help.Model
	width   int
}

// NewModel creates the view. refresh is the status polling interval.
func NewModel(client Client, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = models.DefaultTickInterval
	}

	input := textinput.New()
	input.Prompt = "Track folder: "
	input.Placeholder = "~/Music/lullaby"
	input.CharLimit = 4096

	return Model{
		client:  client,
		refresh: refresh,
		input:   input,
		help:    help.New(),
		width:   defaultWidth,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchStatusCmd(m.client), tickCmd(m.refresh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case StatusMsg:
		m.status = msg.Status
		return m, nil

	case ActionDoneMsg:
		m.notice = msg.Notice
		m.err = nil
		return m, fetchStatusCmd(m.client)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchStatusCmd(m.client), tickCmd(m.refresh))

	case tea.KeyMsg:
		// An error stays up until the user does something else.
		m.err = nil
		if m.editing {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Toggle):
		return m, toggleCmd(m.client)
	case key.Matches(msg, keys.Play):
		return m, playCmd(m.client)
	case key.Matches(msg, keys.Pause):
		return m, pauseCmd(m.client)
	case key.Matches(msg, keys.Dir):
		m.editing = true
		if m.status != nil {
			m.input.SetValue(m.status.Playback.TrackRoot)
			m.input.CursorEnd()
		}
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, inputCancel):
		m.editing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, inputSubmit):
		m.editing = false
		m.input.Blur()
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			return m, nil
		}
		return m, setDirectoryCmd(m.client, path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Lullaby"))
	if m.status != nil {
		b.WriteString("  " + stateLabel(m.status.Playback.State))
	}
	b.WriteString("\n")

	b.WriteString(panelStyle.Render(m.statusBody()))
	b.WriteString("\n")

	switch {
	case m.editing:
		b.WriteString(m.input.View() + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(ansi.Truncate(m.err.Error(), m.width, "…")) + "\n")
	case m.notice != "":
		b.WriteString(noticeStyle.Render(ansi.Truncate(m.notice, m.width, "…")) + "\n")
	}

	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) statusBody() string {
	if m.status == nil {
		return emptyStyle.Render("Connecting to daemon…")
	}

	// Leave room for the panel border and padding.
	inner := max(m.width-4, 20)
	p := m.status.Playback

	lines := []string{
		labelStyle.Render("Folder     ") + valueStyle.Render(ansi.Truncate(p.TrackRoot, inner-11, "…")),
	}
	for _, ch := range p.Channels {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-10s ", ch.Category))+channelLine(ch, inner-11))
	}
	lines = append(lines, labelStyle.Render(fmt.Sprintf("up %s, %d ticks", m.status.Uptime.Truncate(time.Second), p.Ticks)))
	return strings.Join(lines, "\n")
}

func stateLabel(state models.PlaybackState) string {
	if state == models.StatePaused {
		return pausedStyle.Render("❚❚ paused")
	}
	return playingStyle.Render("▶ playing")
}

func channelLine(ch models.ChannelStatus, width int) string {
	if ch.Queued == 0 {
		return emptyStyle.Render(ansi.Truncate("no tracks in "+ch.Dir, width, "…"))
	}
	name := ch.LastTrack
	if name == "" {
		name = "playing"
	}
	return valueStyle.Render(ansi.Truncate(name, width, "…"))
}
