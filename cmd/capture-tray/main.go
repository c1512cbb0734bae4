package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncruces/zenity"
	"github.com/petems/capture-tray/internal/app"
	"github.com/petems/capture-tray/internal/audio"
	"github.com/petems/capture-tray/internal/config"
	"github.com/petems/capture-tray/internal/hotkey"
	"github.com/petems/capture-tray/internal/logging"
	"github.com/petems/capture-tray/internal/permissions"
	"github.com/petems/capture-tray/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsurePermissions(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the audio device; without it there is nothing to do
	device, err := audio.Open(cfg.Audio, log)
	if err != nil {
		err = app.InitError(err)
		_ = zenity.Error(err.Error(), zenity.Title("Capture Tray"), zenity.ErrorIcon)
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, log, Version, Commit) // App reference set below

	application, err := app.New(app.Config{
		Device:            device,
		Logger:            log,
		StatusUpdater:     trayUI,
		MaxRecordingBytes: cfg.Audio.MaxRecordingBytes,
		InputPair:         cfg.Audio.InputPair,
		Gain:              float32(cfg.Audio.Gain),
	})
	if err != nil {
		device.Close()
		_ = zenity.Error(err.Error(), zenity.Title("Capture Tray"), zenity.ErrorIcon)
		log.Fatal().Err(err).Msg("Failed to start session")
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	// Set app reference in tray
	trayUI.SetApp(application)

	// Register global hotkey; the tray menu works without it
	hkManager, err := hotkey.New()
	switch {
	case errors.Is(err, hotkey.ErrUnsupported):
		log.Warn().Msg("Global hotkey not supported on this platform")
	case err != nil:
		log.Error().Err(err).Msg("Failed to initialize hotkeys")
	default:
		defer hkManager.Close()
		onHotkey := func(pressed bool) {
			if pressed {
				trayUI.ToggleRecording()
			}
		}
		if err := hkManager.Register(cfg.PlatformHotkey(), onHotkey); err != nil {
			log.Error().Err(err).Str("hotkey", cfg.PlatformHotkey()).Msg("Failed to register hotkey")
		}
	}

	log.Info().Str("version", Version).Msg("Capture Tray starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Tray error")
	}
}
