// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package components provides UI components for the DARK AI TUI.
//
// Toasts are non-blocking notifications in the bottom-right corner that
// auto-dismiss. Chat keeps flowing while they are on screen; playback
// and share failures surface here instead of interrupting the session.
package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AzazMehtiyev/DARK-AI/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast
	ToastKindError
	// ToastKindWarning is a warning toast
	ToastKindWarning
	// ToastKindSuccess is a success toast
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

// Toast is a single notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the toast should be dismissed.
func (t *Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager manages active toast notifications.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates a toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{
		nextID:    1,
		maxToasts: 5,
	}
}

func (m *ToastManager) add(message string, kind ToastKind, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	toast := Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	}
	m.nextID++

	// Newest first.
	m.toasts = append([]Toast{toast}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
}

// AddError adds an error toast.
func (m *ToastManager) AddError(message string) {
	m.add(message, ToastKindError, ErrorToastDuration)
}

// AddWarning adds a warning toast.
func (m *ToastManager) AddWarning(message string) {
	m.add(message, ToastKindWarning, 6*time.Second)
}

// AddStatus adds an informational toast.
func (m *ToastManager) AddStatus(message string) {
	m.add(message, ToastKindStatus, DefaultToastDuration)
}

// AddSuccess adds a success toast.
func (m *ToastManager) AddSuccess(message string) {
	m.add(message, ToastKindSuccess, DefaultToastDuration)
}

// Tick drops expired toasts and returns the survivors, newest first.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, toast := range m.toasts {
		if !toast.IsExpired() {
			active = append(active, toast)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Active returns the live toasts, newest first, without touching expiry.
// Rendering calls this; only Tick removes toasts.
func (m *ToastManager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// HasToasts returns true if any toast is on screen.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg drives toast expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd returns a command that ticks toasts every 100ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast.
func RenderToast(theme *styles.Theme, toast Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var style lipgloss.Style
	var icon string
	switch toast.Kind {
	case ToastKindError:
		style, icon = theme.ToastError, "✗"
	case ToastKindWarning:
		style, icon = theme.ToastWarning, "!"
	case ToastKindSuccess:
		style, icon = theme.ToastSuccess, "✓"
	default:
		style, icon = theme.ToastStatus, "•"
	}

	return style.MaxWidth(maxWidth).Render(icon + " " + toast.Message)
}

// RenderToastStack renders the toasts stacked in the bottom-right corner.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width, height int) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		rendered = append(rendered, RenderToast(theme, toast, width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Right, lipgloss.Bottom,
			lipgloss.NewStyle().MarginRight(2).MarginBottom(1).Render(stack))
	}
	return stack
}

// =============================================================================
// HELPERS
// =============================================================================

// JoinNonEmpty joins the non-empty parts with newlines. Used when
// assembling view sections that may be blank.
func JoinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
