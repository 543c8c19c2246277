// DARK AI - terminal client for the DARK AI chat backend.
//
// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/AzazMehtiyev/DARK-AI/internal/archive"
	"github.com/AzazMehtiyev/DARK-AI/internal/audio"
	"github.com/AzazMehtiyev/DARK-AI/internal/backend"
	"github.com/AzazMehtiyev/DARK-AI/internal/config"
	"github.com/AzazMehtiyev/DARK-AI/internal/logging"
	"github.com/AzazMehtiyev/DARK-AI/internal/screenshare"
	"github.com/AzazMehtiyev/DARK-AI/internal/session"
	"github.com/AzazMehtiyev/DARK-AI/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("DARK AI %s (%s)\n", Version, GitCommit)
		return
	}

	// A .env next to the binary can carry DARKAI_* overrides.
	godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func run(cfg *config.Config) error {
	log, closeLog := setupLogging(cfg)
	defer closeLog()

	log.WithField("version", Version).Info("DARK AI starting")

	requestTimeout := time.Duration(cfg.Backend.TimeoutSecs) * time.Second
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.SessionID, log).
		WithMaxRetries(cfg.Backend.RetryAttempts).
		WithTimeout(requestTimeout)

	controller := session.NewController(cfg.Backend.SessionID, log)

	if cfg.Archive.Enabled {
		if arc := openArchive(cfg, log); arc != nil {
			defer arc.Close()
			controller.WithArchive(arc)
		}
	}

	// A key in the config or environment enables speech without the
	// /speech command.
	if cfg.Speech.APIKey != "" {
		configureSpeech(client, controller, cfg.Speech.APIKey, requestTimeout, log)
	}

	player := audio.NewPlayer(audio.NewDeviceOutput(), log)
	defer player.Stop()

	capture := screenshare.NewFFmpegSource(
		cfg.Capture.FFmpegPath, cfg.Capture.Display, cfg.Capture.FrameRate, log)
	share := screenshare.NewSession(capture, screenshare.NewPeerFactory(log), log)
	defer share.Stop()

	screen := chat.New(chat.Options{
		Controller:     controller,
		Backend:        client,
		Player:         player,
		Share:          share,
		AutoplayDelay:  time.Duration(cfg.Speech.AutoplayDelayMs) * time.Millisecond,
		RequestTimeout: requestTimeout,
		Log:            log,
	})

	p := tea.NewProgram(screen, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}

	log.Info("DARK AI exiting")
	return nil
}

func setupLogging(cfg *config.Config) (*logrus.Logger, func()) {
	path, err := cfg.LogPath()
	if err != nil {
		return logging.Discard(), func() {}
	}

	log, closer, err := logging.Setup(path, cfg.Log.Level)
	if err != nil {
		// The TUI still works without a log file.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return logging.Discard(), func() {}
	}
	return log, func() { closer.Close() }
}

func openArchive(cfg *config.Config, log *logrus.Logger) *archive.Archive {
	path, err := cfg.ArchivePath()
	if err != nil {
		return nil
	}
	arc, err := archive.Open(path, cfg.Backend.SessionID)
	if err != nil {
		log.WithError(err).Warn("failed to open message archive")
		return nil
	}
	return arc
}

func configureSpeech(client *backend.Client, controller *session.Controller, apiKey string, timeout time.Duration, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.ConfigureSpeech(ctx, apiKey); err != nil {
		log.WithError(err).Warn("failed to configure speech at startup")
		return
	}
	controller.EnableSpeech()
	log.Info("speech enabled from configuration")
}
