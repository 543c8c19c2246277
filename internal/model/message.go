// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package model contains the data structures for the DARK AI conversation.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/AzazMehtiyev/DARK-AI/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "ai"
)

// String returns the wire representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAgent:
		return "DARK AI"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat message. Text is immutable after creation; the
// only field that changes later is the audio attachment, which is set at most
// once when speech synthesis completes for an agent message.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"message"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"timestamp"`

	// Audio attachment. HasAudio is true once synthesis succeeded and
	// AudioRef points at the playable resource. Never set for user messages.
	HasAudio bool   `json:"has_audio"`
	AudioRef string `json:"audio_url,omitempty"`
}

// NewMessage creates a message with a generated ID.
func NewMessage(sender Sender, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) *Message {
	return NewMessage(SenderUser, text)
}

// NewAgentMessage creates an agent message.
func NewAgentMessage(text string) *Message {
	return NewMessage(SenderAgent, text)
}

// AttachAudio records a synthesized audio locator on the message. It refuses
// user messages and refuses to overwrite an existing attachment, so a slow
// duplicate synthesis response cannot clobber the first one.
func (m *Message) AttachAudio(locator string) bool {
	if m.Sender != SenderAgent || locator == "" {
		return false
	}
	if m.HasAudio {
		return false
	}
	m.HasAudio = true
	m.AudioRef = locator
	return true
}

// Preview returns a truncated preview of the message text.
// Rune-based so multi-byte characters are never split.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Text, maxLen)
}

// IsEmpty returns true if the message has no text.
func (m *Message) IsEmpty() bool {
	return len(m.Text) == 0
}
