// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "darkai.log")

	log, closer, err := Setup(path, "debug")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	log.Info("hello from test")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing entry: %q", string(data))
	}
}

func TestSetupLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "darkai.log")

	log, closer, err := Setup(path, "error")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	if log.GetLevel() != logrus.ErrorLevel {
		t.Errorf("level = %v, want error", log.GetLevel())
	}
}

func TestSetupBadLevelFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "darkai.log")

	log, closer, err := Setup(path, "chatty")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info fallback", log.GetLevel())
	}
}
