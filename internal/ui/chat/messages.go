// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package chat

import (
	"github.com/AzazMehtiyev/DARK-AI/internal/model"
	"github.com/AzazMehtiyev/DARK-AI/internal/screenshare"
)

// Messages delivered to the chat model from commands. Every slow
// operation runs in a tea.Cmd and lands back here.

// HealthCheckMsg reports the startup reachability check. A failure is a
// warning, not a stop; the backend may come up later.
type HealthCheckMsg struct {
	Err error
}

// HistoryLoadedMsg carries the stored conversation, oldest first.
type HistoryLoadedMsg struct {
	Messages []*model.Message
}

// HistoryFailedMsg reports that history could not be loaded. The chat
// starts empty instead.
type HistoryFailedMsg struct {
	Err error
}

// AgentReplyMsg carries the agent's reply to the pending send.
type AgentReplyMsg struct {
	Reply string
}

// SendFailedMsg reports that the pending send failed.
type SendFailedMsg struct {
	Err error
}

// SpeechConfiguredMsg reports the outcome of handing the ElevenLabs key
// to the backend.
type SpeechConfiguredMsg struct {
	Err error
}

// SpeechReadyMsg carries a synthesized audio locator for a message.
type SpeechReadyMsg struct {
	MessageID string
	Locator   string
	Err       error
}

// AutoplayMsg fires after the settle delay to start playback.
type AutoplayMsg struct {
	Locator string
}

// PlaybackFailedMsg reports a non-fatal playback error.
type PlaybackFailedMsg struct {
	Err error
}

// ShareStartedMsg reports the outcome of starting a screen share.
type ShareStartedMsg struct {
	Err error
}

// ShareEventMsg wraps a screen share session event.
type ShareEventMsg struct {
	Event screenshare.Event
}
