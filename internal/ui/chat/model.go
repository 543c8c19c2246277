// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package chat implements the DARK AI chat screen.
//
// The model owns the viewport, the input line, and the spinner; session
// state lives in the session controller and everything slow happens in
// commands.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"github.com/AzazMehtiyev/DARK-AI/internal/audio"
	"github.com/AzazMehtiyev/DARK-AI/internal/model"
	"github.com/AzazMehtiyev/DARK-AI/internal/screenshare"
	"github.com/AzazMehtiyev/DARK-AI/internal/session"
	"github.com/AzazMehtiyev/DARK-AI/internal/ui/components"
	"github.com/AzazMehtiyev/DARK-AI/internal/ui/styles"
)

// Backend is the slice of the API client the chat screen needs.
type Backend interface {
	Health(ctx context.Context) error
	History(ctx context.Context) ([]*model.Message, error)
	Chat(ctx context.Context, text string) (string, error)
	ConfigureSpeech(ctx context.Context, apiKey string) error
	Synthesize(ctx context.Context, text string) (string, error)
}

// Player plays speech clips.
type Player interface {
	Play(ctx context.Context, locator string) error
	Stop()
}

// Sharer is the screen share session.
type Sharer interface {
	Start(ctx context.Context) error
	Stop()
	Active() bool
	Events() <-chan screenshare.Event
}

var _ Player = (*audio.Player)(nil)
var _ Sharer = (*screenshare.Session)(nil)

// Options configures the chat screen.
type Options struct {
	Controller    *session.Controller
	Backend       Backend
	Player        Player
	Share         Sharer
	AutoplayDelay time.Duration
	// RequestTimeout bounds every backend call issued from the screen.
	RequestTimeout time.Duration
	Log            *logrus.Logger
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	theme    *styles.Theme
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	toasts   *components.ToastManager
	renderer *glamour.TermRenderer

	controller *session.Controller
	backend    Backend
	player     Player
	share      Sharer

	autoplayDelay  time.Duration
	requestTimeout time.Duration
	log            *logrus.Logger

	width   int
	height  int
	ready   bool
	sharing bool
	loaded  bool
}

// New creates the chat screen.
func New(opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Mesajınızı yazın..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	m := &Model{
		theme:          styles.NewTheme(),
		input:          input,
		spin:           spin,
		toasts:         components.NewToastManager(),
		controller:     opts.Controller,
		backend:        opts.Backend,
		player:         opts.Player,
		share:          opts.Share,
		autoplayDelay:  opts.AutoplayDelay,
		requestTimeout: timeout,
		log:            opts.Log,
	}
	m.spin.Style = m.theme.Spinner
	return m
}

// resize rebuilds the size-dependent pieces after a terminal resize.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	contentHeight := height - chromeHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = contentHeight
	}
	m.input.Width = width - 6

	wrap := width - 8
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.log.WithError(err).Warn("failed to build markdown renderer")
		renderer = nil
	}
	m.renderer = renderer

	m.refreshTranscript()
}

// chromeHeight is the rows taken by header, input box, and status bar.
const chromeHeight = 7
