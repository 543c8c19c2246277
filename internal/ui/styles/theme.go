// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserBubble  lipgloss.Style
	AgentBubble lipgloss.Style
	UserLabel   lipgloss.Style
	AgentLabel  lipgloss.Style
	Timestamp   lipgloss.Style
	AudioBadge  lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusSpeech  lipgloss.Style
	StatusSharing lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// TOAST STYLES
	// ==========================================================================

	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastStatus  lipgloss.Style
}

// NewTheme creates a theme tuned to the current terminal.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Crimson).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(CrimsonDeep).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Crimson)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AgentBubble = lipgloss.NewStyle().
		Foreground(AgentBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AgentBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AgentLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Crimson)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.AudioBadge = lipgloss.NewStyle().
		Foreground(Emerald)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Crimson)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusSpeech = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	t.StatusSharing = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Crimson)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Toasts
	toast := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Bold(true)
	t.ToastError = toast.Foreground(Rose).BorderForeground(Rose)
	t.ToastWarning = toast.Foreground(Amber).BorderForeground(Amber)
	t.ToastSuccess = toast.Foreground(Emerald).BorderForeground(Emerald)
	t.ToastStatus = toast.Foreground(Cyan).BorderForeground(Cyan)
}

// SetSize records the current terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
