// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package logging sets up the file-backed logger for DARK AI.
//
// The TUI owns the terminal, so everything is written to a log file
// instead of stderr. Events that matter to the user surface as toasts;
// the log file carries the detail.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Setup creates a logger writing to the given file path at the given
// level. The parent directory is created if needed. The returned closer
// releases the log file.
func Setup(path, level string) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(f)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(parseLevel(level))

	return log, f, nil
}

// Discard returns a logger that drops everything. Used by tests and as
// a fallback when the log file cannot be opened.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func parseLevel(level string) logrus.Level {
	// "warn" maps to logrus WarnLevel via ParseLevel already.
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
