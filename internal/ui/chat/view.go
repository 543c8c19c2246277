// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AzazMehtiyev/DARK-AI/internal/model"
	"github.com/AzazMehtiyev/DARK-AI/internal/ui/components"
)

// View renders the chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "Yükleniyor..."
	}

	sections := components.JoinNonEmpty(
		m.renderHeader(),
		m.viewport.View(),
		m.renderThinking(),
		m.renderInput(),
		m.renderStatusBar(),
	)

	if m.toasts.HasToasts() {
		overlay := components.RenderToastStack(m.theme, m.toasts.Active(), m.width, m.height)
		if overlay != "" {
			// Toasts draw over the bottom-right corner.
			return sections + "\n" + overlay
		}
	}
	return sections
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("DARK AI")
	return m.theme.Header.Width(m.width - 2).Render(title)
}

func (m *Model) renderThinking() string {
	if !m.controller.Sending() {
		return ""
	}
	return " " + m.spin.View() + m.theme.ThinkingText.Render(" DARK AI düşünüyor...")
}

func (m *Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m *Model) renderStatusBar() string {
	var parts []string

	if m.controller.SpeechEnabled() {
		parts = append(parts, m.theme.StatusSpeech.Render("♪ ses açık"))
	}
	if m.sharing {
		parts = append(parts, m.theme.StatusSharing.Render("● paylaşım"))
	}
	parts = append(parts,
		m.theme.ShortcutKey.Render("ctrl+s")+m.theme.ShortcutDesc.Render(" paylaşım"),
		m.theme.ShortcutKey.Render("ctrl+c")+m.theme.ShortcutDesc.Render(" çıkış"),
	)

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders the conversation into the viewport and
// pins it to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	history := m.controller.History()
	if len(history) == 0 {
		if m.loaded {
			m.viewport.SetContent(components.RenderWelcome(m.theme, m.width))
		}
		return
	}

	blocks := make([]string, 0, len(history))
	for _, msg := range history {
		blocks = append(blocks, m.renderMessage(msg))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg *model.Message) string {
	ts := m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04"))

	if msg.Sender == model.SenderUser {
		label := m.theme.UserLabel.Render(msg.Sender.DisplayName()) + " " + ts
		bubble := m.theme.UserBubble.MaxWidth(m.bubbleWidth()).Render(msg.Text)
		return lipgloss.JoinVertical(lipgloss.Right,
			lipgloss.PlaceHorizontal(m.width, lipgloss.Right, label),
			lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble),
		)
	}

	label := m.theme.AgentLabel.Render(msg.Sender.DisplayName()) + " " + ts
	if msg.HasAudio {
		label += " " + m.theme.AudioBadge.Render("♪")
	}
	bubble := m.theme.AgentBubble.MaxWidth(m.bubbleWidth()).Render(m.renderAgentText(msg.Text))
	return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
}

// renderAgentText runs the agent's markdown through glamour, falling
// back to the raw text when rendering fails.
func (m *Model) renderAgentText(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (m *Model) bubbleWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}
