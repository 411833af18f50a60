// Package main is the entry point for the lullabyd daemon.
package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lullaby-fm/lullaby/internal/buildinfo"
	"github.com/lullaby-fm/lullaby/internal/daemon"
	"github.com/lullaby-fm/lullaby/internal/daemon/playback"
	"github.com/lullaby-fm/lullaby/internal/daemon/tray"
	"github.com/lullaby-fm/lullaby/internal/logging"
)

func main() {
	// Parse flags
	foreground := flag.Bool("foreground", false, "Run in foreground (no system tray)")
	port := flag.Int("port", 0, "Port to listen on (0 for dynamic allocation)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	dev := flag.Bool("dev", false, "Enable debug logging")
	version := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *version {
		buildinfo.Print(os.Stdout, "lullabyd")
		return
	}

	logger := logging.Setup(*dev).With().Str("app", "lullabyd").Logger()

	d, err := daemon.New(daemon.Options{
		Port:        *port,
		MetricsAddr: *metricsAddr,
	}, logger)
	if err != nil {
		if errors.Is(err, playback.ErrNoAudioDevice) {
			logger.Fatal().Err(err).Msg("No usable audio output")
		}
		logger.Fatal().Err(err).Msg("Failed to start daemon")
	}

	if *foreground {
		logger.Info().Msg("Running in foreground mode (no system tray)")
		runForeground(d, logger)
	} else {
		logger.Info().Msg("Running in background mode (with system tray)")
		runWithTray(d, logger)
	}
}

// quitOnSignal turns SIGINT/SIGTERM into a daemon quit request.
func quitOnSignal(d *daemon.Daemon, logger zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
			d.Quit()
		case <-d.Quitting():
		}
	}()
}

func runForeground(d *daemon.Daemon, logger zerolog.Logger) {
	if err := d.Start(); err != nil {
		d.Stop()
		logger.Fatal().Err(err).Msg("Failed to start daemon")
	}
	quitOnSignal(d, logger)

	<-d.Quitting()
	d.Stop()
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(d *daemon.Daemon, logger zerolog.Logger) {
	ctrl := d.Controller()
	t := tray.New(ctrl, tray.Options{
		OnStart: func() {
			if err := d.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start daemon")
			}
			quitOnSignal(d, logger)
			go func() {
				<-d.Quitting()
				tray.Quit()
			}()
		},
		OnExit:  d.Stop,
		OnQuit:  d.Quit,
		Refresh: ctrl.TickInterval(),
	}, logging.Component(logger, "tray"))

	// This blocks the main goroutine until tray exits.
	t.Run()
}
