package tray

import (
	_ "embed"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/models"
)

//go:embed icon.png
var iconData []byte

// Options configures the tray.
type Options struct {
	// OnStart is called once the tray is ready (start daemon services here).
	OnStart func()
	// OnExit is called when the tray exits (cleanup here).
	OnExit func()
	// OnQuit handles the Quit menu item. Defaults to quitting the tray.
	OnQuit func()
	// Refresh is how often the menu mirrors the controller state.
	Refresh time.Duration
}

// Tray is the daemon's menu bar presence.
type Tray struct {
	playback Playback
	opts     Options
	logger   zerolog.Logger
	home     string

	folderItem *systray.MenuItem
	toggleItem *systray.MenuItem
	openItem   *systray.MenuItem
	quitItem   *systray.MenuItem

	shown models.PlaybackStatus
	stop  chan struct{}
}

// New creates a tray bound to a playback controller.
func New(playback Playback, opts Options, logger zerolog.Logger) *Tray {
	if opts.Refresh <= 0 {
		opts.Refresh = models.DefaultTickInterval
	}
	return &Tray{
		playback: playback,
		opts:     opts,
		logger:   logger,
		home:     userHome(),
		stop:     make(chan struct{}),
	}
}

// Run starts the system tray. This blocks the calling goroutine (must be main).
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTemplateIcon(iconData, iconData)

	header := systray.AddMenuItem("Lullaby", "")
	header.Disable()

	t.folderItem = systray.AddMenuItem("Track folder: …", "")
	t.folderItem.Disable()

	systray.AddSeparator()

	t.toggleItem = systray.AddMenuItem("Pause", "Pause or resume playback")
	t.openItem = systray.AddMenuItem("Open Track Folder", "Show the track folder")

	systray.AddSeparator()

	t.quitItem = systray.AddMenuItem("Quit", "Shut down the Lullaby daemon")

	if t.opts.OnStart != nil {
		t.opts.OnStart()
	}

	t.render(t.playback.Status(), true)

	go t.handleClicks()
	go t.refreshLoop()
}

func (t *Tray) onQuit() {
	close(t.stop)
	if t.opts.OnExit != nil {
		t.opts.OnExit()
	}
}

func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.stop:
			return

		case <-t.toggleItem.ClickedCh:
			t.toggle()

		case <-t.openItem.ClickedCh:
			t.openFolder()

		case <-t.quitItem.ClickedCh:
			if t.opts.OnQuit != nil {
				t.opts.OnQuit()
			} else {
				systray.Quit()
			}
		}
	}
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(t.opts.Refresh)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.render(t.playback.Status(), false)
		}
	}
}

// render updates menu titles from a snapshot. Only touched by one goroutine
// at a time: onReady before the loops start, then refreshLoop.
func (t *Tray) render(status models.PlaybackStatus, force bool) {
	if force || status.State != t.shown.State {
		t.toggleItem.SetTitle(toggleTitle(status.State))
	}
	if force || status.TrackRoot != t.shown.TrackRoot {
		t.folderItem.SetTitle(folderTitle(status.TrackRoot, t.home))
	}
	systray.SetTooltip(formatTooltip(status))
	t.shown = status
}

func (t *Tray) toggle() {
	sender := t.playback.Sender()
	var err error
	if t.playback.Status().State == models.StatePaused {
		err = sender.Play()
	} else {
		err = sender.Pause()
	}
	if err != nil {
		t.logger.Warn().Err(err).Msg("Toggle playback failed")
	}
}

func (t *Tray) openFolder() {
	root := t.playback.Status().TrackRoot
	if root == "" {
		return
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		t.logger.Warn().Err(err).Str("dir", root).Msg("Cannot create track folder")
		return
	}
	name, args := openCommand(runtime.GOOS, root)
	if err := exec.Command(name, args...).Start(); err != nil {
		t.logger.Warn().Err(err).Str("dir", root).Msg("Cannot open track folder")
	}
}
