// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AzazMehtiyev/DARK-AI/internal/screenshare"
	"github.com/AzazMehtiyev/DARK-AI/internal/session"
	"github.com/AzazMehtiyev/DARK-AI/internal/ui/components"
	"github.com/AzazMehtiyev/DARK-AI/internal/util"
)

// speechCommand enables text-to-speech: "/speech <elevenlabs-key>".
const speechCommand = "/speech"

// Init pings the backend, requests the stored history, and starts the
// background tickers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		healthCheckCmd(m.backend, m.requestTimeout),
		loadHistoryCmd(m.backend, m.requestTimeout),
		waitShareEventCmd(m.share),
		components.ToastTickCmd(),
	)
}

// Update is the event loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// ==========================================================================
	// Startup
	// ==========================================================================

	case HealthCheckMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("backend health check failed")
			m.toasts.AddWarning("Sunucuya ulaşılamıyor")
		}
		return m, nil

	// ==========================================================================
	// History
	// ==========================================================================

	case HistoryLoadedMsg:
		m.controller.SetHistory(msg.Messages)
		m.loaded = true
		m.refreshTranscript()
		return m, nil

	case HistoryFailedMsg:
		m.log.WithError(msg.Err).Warn("failed to load history")
		m.loaded = true
		m.toasts.AddWarning("Geçmiş yüklenemedi")
		return m, nil

	// ==========================================================================
	// Send lifecycle
	// ==========================================================================

	case AgentReplyMsg:
		reply := m.controller.CompleteSend(msg.Reply)
		m.refreshTranscript()
		if m.controller.SpeechEnabled() {
			return m, synthesizeCmd(m.backend, reply.ID, reply.Text, m.requestTimeout)
		}
		return m, nil

	case SendFailedMsg:
		m.controller.FailSend()
		m.log.WithError(msg.Err).Error("send failed")
		m.toasts.AddError("Mesaj gönderilemedi: " + shortError(msg.Err))
		return m, nil

	// ==========================================================================
	// Speech
	// ==========================================================================

	case SpeechConfiguredMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Error("speech configuration failed")
			m.toasts.AddError("Ses yapılandırılamadı: " + shortError(msg.Err))
			return m, nil
		}
		m.controller.EnableSpeech()
		m.toasts.AddSuccess("Ses etkinleştirildi")
		return m, nil

	case SpeechReadyMsg:
		if msg.Err != nil {
			// The reply already landed; missing audio is a footnote.
			m.log.WithError(msg.Err).Warn("speech synthesis failed")
			m.toasts.AddWarning("Ses oluşturulamadı")
			return m, nil
		}
		attached := m.controller.AttachAudio(msg.MessageID, msg.Locator)
		if attached == nil {
			return m, nil
		}
		m.refreshTranscript()
		return m, autoplayCmd(m.autoplayDelay, msg.Locator)

	case AutoplayMsg:
		return m, playCmd(m.player, msg.Locator)

	case PlaybackFailedMsg:
		m.log.WithError(msg.Err).Warn("playback failed")
		m.toasts.AddWarning("Ses çalınamadı")
		return m, nil

	// ==========================================================================
	// Screen share
	// ==========================================================================

	case ShareStartedMsg:
		if msg.Err != nil {
			if !errors.Is(msg.Err, screenshare.ErrAlreadySharing) {
				m.log.WithError(msg.Err).Error("screen share failed to start")
				m.toasts.AddError("Ekran paylaşımı başlatılamadı")
			}
			m.sharing = m.share.Active()
			return m, nil
		}
		m.sharing = true
		m.toasts.AddStatus("Ekran paylaşımı başladı")
		return m, nil

	case ShareEventMsg:
		return m.handleShareEvent(msg.Event)

	// ==========================================================================
	// Tickers
	// ==========================================================================

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.controller.Sending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateChildren(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.share.Stop()
		m.player.Stop()
		return m, tea.Quit

	case "ctrl+s":
		if m.share.Active() {
			m.share.Stop()
			return m, nil
		}
		return m, startShareCmd(m.share)

	case "enter":
		return m.submit()
	}

	return m.updateChildren(msg)
}

// submit handles the enter key: either the speech command or a chat send.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if strings.HasPrefix(text, speechCommand) {
		key := strings.TrimSpace(strings.TrimPrefix(text, speechCommand))
		if key == "" {
			m.toasts.AddWarning("Kullanım: /speech <ElevenLabs anahtarı>")
			return m, nil
		}
		m.input.Reset()
		return m, configureSpeechCmd(m.backend, key, m.requestTimeout)
	}

	userMsg, err := m.controller.BeginSend(text)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			// Nothing to do.
		case errors.Is(err, session.ErrBusy):
			m.toasts.AddWarning("Yanıt bekleniyor, lütfen bekleyin")
		default:
			m.toasts.AddError(shortError(err))
		}
		return m, nil
	}

	m.input.Reset()
	m.refreshTranscript()
	return m, tea.Batch(sendCmd(m.backend, userMsg.Text, m.requestTimeout), m.spin.Tick)
}

func (m *Model) handleShareEvent(ev screenshare.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case screenshare.EventSignalReady:
		// No signaling channel to the viewer yet; the offer is logged
		// so it can be pasted into a receiver manually.
		m.log.WithField("sdp_len", len(ev.Payload.SDP)).Info("share offer ready")
		m.toasts.AddStatus("Paylaşım teklifi hazır")

	case screenshare.EventConnected:
		m.toasts.AddSuccess("İzleyici bağlandı")

	case screenshare.EventFailed:
		m.log.WithError(ev.Err).Warn("screen share failed")
		m.toasts.AddError("Ekran paylaşımı kesildi")

	case screenshare.EventClosed:
		m.sharing = false
		m.toasts.AddStatus("Ekran paylaşımı durdu")
	}

	m.sharing = m.share.Active()
	return m, waitShareEventCmd(m.share)
}

// updateChildren forwards a message to the focused child components.
func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// shortError keeps toast text readable. Rune-aware: backend errors come
// back in Turkish and byte slicing could split a character.
func shortError(err error) string {
	return util.TruncateRunes(err.Error(), 80)
}
