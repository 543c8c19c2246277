// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AzazMehtiyev/DARK-AI/internal/ui/styles"
)

const wordmark = `
██████╗  █████╗ ██████╗ ██╗  ██╗     █████╗ ██╗
██╔══██╗██╔══██╗██╔══██╗██║ ██╔╝    ██╔══██╗██║
██║  ██║███████║██████╔╝█████╔╝     ███████║██║
██║  ██║██╔══██║██╔══██╗██╔═██╗     ██╔══██║██║
██████╔╝██║  ██║██║  ██║██║  ██╗    ██║  ██║██║
╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝    ╚═╝  ╚═╝╚═╝
`

// RenderWelcome renders the empty-conversation banner.
func RenderWelcome(theme *styles.Theme, width int) string {
	mark := lipgloss.NewStyle().
		Foreground(styles.Crimson).
		Bold(true).
		Render(strings.TrimPrefix(wordmark, "\n"))

	subtitle := theme.HeaderSubtitle.Render("Yapay zeka asistanınız hazır. Bir mesaj yazın.")

	hints := []string{
		theme.ShortcutKey.Render("enter") + theme.ShortcutDesc.Render(" gönder"),
		theme.ShortcutKey.Render("ctrl+s") + theme.ShortcutDesc.Render(" ekran paylaşımı"),
		theme.ShortcutKey.Render("/speech <anahtar>") + theme.ShortcutDesc.Render(" sesi aç"),
		theme.ShortcutKey.Render("ctrl+c") + theme.ShortcutDesc.Render(" çıkış"),
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		mark,
		subtitle,
		"",
		strings.Join(hints, "   "),
	)

	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
	}
	return body
}
