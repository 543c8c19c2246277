// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered, append-only message log for one session.
// Insertion order is display order; messages are never edited in place and
// never removed.
type Conversation struct {
	SessionID string     `json:"session_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`
}

// NewConversation creates an empty conversation for the given session.
func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the log.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AppendUserMessage creates and appends a user message.
func (c *Conversation) AppendUserMessage(text string) *Message {
	msg := NewUserMessage(text)
	c.Append(msg)
	return msg
}

// AppendAgentMessage creates and appends an agent message.
func (c *Conversation) AppendAgentMessage(text string) *Message {
	msg := NewAgentMessage(text)
	c.Append(msg)
	return msg
}

// InstallHistory installs a previously persisted history, in chronological
// order, in front of whatever was appended locally in the meantime. A history
// load that resolves after the user already sent a message never removes that
// message; the local tail keeps its order behind the loaded prefix.
func (c *Conversation) InstallHistory(msgs []*Message) {
	loaded := make([]*Message, 0, len(msgs)+len(c.Messages))
	for _, m := range msgs {
		if m != nil {
			loaded = append(loaded, m)
		}
	}
	c.Messages = append(loaded, c.Messages...)
	c.UpdatedAt = time.Now()
}

// GetMessageByID returns a message by identity, or nil.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// History returns the message log for display.
func (c *Conversation) History() []*Message {
	return c.Messages
}

// =============================================================================
// WIRE ORDER NORMALIZATION
// =============================================================================

// NormalizeHistory converts the wire order of the history endpoint
// (newest-first) into chronological display order. The input slice is not
// modified.
func NormalizeHistory(wire []*Message) []*Message {
	out := make([]*Message, 0, len(wire))
	for i := len(wire) - 1; i >= 0; i-- {
		if wire[i] != nil {
			out = append(out, wire[i])
		}
	}
	return out
}
