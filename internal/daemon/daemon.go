// Package daemon wires the playback controller to the control server, the
// settings watcher and the metrics endpoint, and owns the daemon's single
// shutdown path.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/daemon/controller"
	"github.com/lullaby-fm/lullaby/internal/daemon/playback"
	"github.com/lullaby-fm/lullaby/internal/daemon/server"
	"github.com/lullaby-fm/lullaby/internal/daemon/watcher"
	"github.com/lullaby-fm/lullaby/internal/logging"
	"github.com/lullaby-fm/lullaby/internal/models"
	"github.com/lullaby-fm/lullaby/internal/telemetry"
)

// DefaultShutdownTimeout bounds how long Stop waits for the controller to
// process its Shutdown command before cancelling it.
const DefaultShutdownTimeout = 3 * time.Second

// Options configures a Daemon.
type Options struct {
	Port        int    // gRPC port, 0 for dynamic allocation
	MetricsAddr string // empty disables /metrics

	// Settings overrides ~/.lullaby/settings.yaml.
	Settings *models.Settings
	// Output overrides the default audio device.
	Output playback.Output

	ShutdownTimeout time.Duration
}

// Daemon is a running lullabyd instance.
type Daemon struct {
	logger     zerolog.Logger
	ctrl       *controller.Controller
	srv        *server.Server
	metrics    *telemetry.Metrics
	metricsSrv *telemetry.Server
	watcher    *watcher.Watcher
	timeout    time.Duration

	cancel   context.CancelFunc
	quit     chan struct{}
	quitOnce sync.Once
	stopOnce sync.Once
}

// New loads settings, opens the audio output and prepares every service.
// Nothing runs until Start.
func New(opts Options, logger zerolog.Logger) (*Daemon, error) {
	if err := config.EnsureGlobalDir(); err != nil {
		return nil, fmt.Errorf("failed to create global directory: %w", err)
	}

	settings := opts.Settings
	if settings == nil {
		var err error
		if settings, err = config.LoadSettings(); err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	}
	root, err := config.ResolveTrackRoot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve track directory: %w", err)
	}
	if err := config.EnsureTrackDirs(root); err != nil {
		// Missing folders are tolerated; the controller retries every tick.
		logger.Warn().Err(err).Str("track_root", root).Msg("Cannot create track folders")
	}

	d := &Daemon{
		logger:  logger,
		metrics: telemetry.NewMetrics(),
		timeout: opts.ShutdownTimeout,
		quit:    make(chan struct{}),
	}
	if d.timeout <= 0 {
		d.timeout = DefaultShutdownTimeout
	}

	ctrlOpts := controller.OptionsFromSettings(settings, root)
	ctrlOpts.Metrics = d.metrics
	ctrlLogger := logging.Component(logger, "controller")
	if opts.Output != nil {
		d.ctrl = controller.New(opts.Output, ctrlOpts, ctrlLogger)
	} else if d.ctrl, err = controller.Open(ctrlOpts, ctrlLogger); err != nil {
		return nil, err
	}

	// From here on the output is open and must be released on failure.
	fail := func(err error) (*Daemon, error) {
		d.closeAll()
		return nil, err
	}

	if opts.MetricsAddr != "" {
		d.metricsSrv, err = telemetry.Listen(opts.MetricsAddr, d.metrics, logging.Component(logger, "metrics"))
		if err != nil {
			return fail(fmt.Errorf("failed to listen for metrics: %w", err))
		}
	}

	d.srv, err = server.New(opts.Port, d.ctrl, server.Options{
		OnShutdown: d.Quit,
	}, logging.Component(logger, "server"))
	if err != nil {
		return fail(fmt.Errorf("failed to create server: %w", err))
	}

	settingsPath, err := config.GlobalSettingsFile()
	if err != nil {
		return fail(err)
	}
	d.watcher, err = watcher.New(settingsPath, root, logging.Component(logger, "watcher"))
	if err != nil {
		return fail(fmt.Errorf("failed to create settings watcher: %w", err))
	}

	return d, nil
}

// closeAll releases whatever New managed to create.
func (d *Daemon) closeAll() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.srv != nil {
		d.srv.Stop()
	}
	if d.metricsSrv != nil {
		_ = d.metricsSrv.Shutdown(context.Background())
	}
	d.ctrl.Close()
}

// Controller returns the playback controller.
func (d *Daemon) Controller() *controller.Controller {
	return d.ctrl
}

// Port returns the gRPC port.
func (d *Daemon) Port() int {
	return d.srv.Port()
}

// Start launches every background goroutine and publishes daemon.yaml.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go func() {
		if err := d.ctrl.Run(ctx); err != nil {
			d.logger.Error().Err(err).Msg("Playback controller failed")
		}
		d.Quit()
	}()

	go func() {
		if err := d.srv.Serve(); err != nil {
			d.logger.Error().Err(err).Msg("Server error")
			d.Quit()
		}
	}()

	if d.metricsSrv != nil {
		go func() {
			if err := d.metricsSrv.Serve(); err != nil {
				d.logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	if err := d.watcher.Start(); err != nil {
		d.logger.Warn().Err(err).Msg("Settings watcher disabled")
	} else {
		go d.forwardWatcherEvents()
	}

	info := models.NewDaemonInfo("127.0.0.1", d.srv.Port(), os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		d.Quit()
		return fmt.Errorf("failed to write daemon info: %w", err)
	}

	d.logger.Info().
		Int("port", d.srv.Port()).
		Int("pid", info.PID).
		Str("instance", info.InstanceID).
		Msg("Daemon started")
	return nil
}

// forwardWatcherEvents turns track root edits in settings.yaml into
// SetDirectory commands until the daemon quits.
func (d *Daemon) forwardWatcherEvents() {
	sender := d.ctrl.Sender()
	for {
		select {
		case <-d.quit:
			return
		case ev := <-d.watcher.Events():
			if ev.Type != watcher.EventTrackRootChanged {
				continue
			}
			d.logger.Info().Str("track_root", ev.TrackRoot).Msg("Track directory changed in settings")
			if err := sender.SetDirectory(ev.TrackRoot); err != nil {
				return
			}
		}
	}
}

// Quit asks the daemon to exit. Safe to call from any goroutine, any number
// of times.
func (d *Daemon) Quit() {
	d.quitOnce.Do(func() {
		close(d.quit)
	})
}

// Quitting is closed once Quit has been called.
func (d *Daemon) Quitting() <-chan struct{} {
	return d.quit
}

// Stop tears everything down in reverse order of Start: watcher, then the
// controller (Shutdown, bounded wait, then cancel), then gRPC and metrics,
// then daemon.yaml.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.Quit()
		d.watcher.Stop()

		if d.cancel == nil {
			// Never started: nothing is running the loop.
			d.ctrl.Close()
		} else {
			d.stopController()
		}

		d.srv.Stop()

		if d.metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			if err := d.metricsSrv.Shutdown(ctx); err != nil {
				d.logger.Warn().Err(err).Msg("Failed to stop metrics server")
			}
			cancel()
		}

		if err := config.RemoveDaemonInfo(); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to remove daemon info")
		}

		d.logger.Info().Msg("Daemon stopped")
	})
}

// stopController sends Shutdown and waits for the loop to exit, cancelling
// its context if it has not finished within the shutdown timeout.
func (d *Daemon) stopController() {
	defer d.cancel()
	if err := d.ctrl.Sender().Shutdown(); err != nil && !errors.Is(err, controller.ErrStopped) {
		d.logger.Warn().Err(err).Msg("Failed to stop playback")
	}
	select {
	case <-d.ctrl.Done():
	case <-time.After(d.timeout):
		d.logger.Warn().Dur("timeout", d.timeout).Msg("Playback controller did not stop in time, cancelling")
		d.cancel()
		<-d.ctrl.Done()
	}
}
