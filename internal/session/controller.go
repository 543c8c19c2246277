// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package session owns the chat session state machine.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/AzazMehtiyev/DARK-AI/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage indicates a send attempt with no text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy indicates a send attempt while a reply is still pending.
	ErrBusy = errors.New("a reply is already pending")
)

// =============================================================================
// ARCHIVER
// =============================================================================

// Archiver mirrors messages to local storage. Failures are logged, never
// surfaced; the archive is best-effort.
type Archiver interface {
	AppendMessage(msg *model.Message) error
	MarkAudio(messageID string) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller tracks the chat session: the conversation transcript, the
// single-pending-send gate, and the speech flag.
//
// One send is in flight at a time. BeginSend appends the user message and
// closes the gate; CompleteSend or FailSend reopens it. The speech flag
// only ever goes from off to on.
type Controller struct {
	mu sync.Mutex

	conversation *model.Conversation
	sending      bool
	speechOn     bool

	archive Archiver
	log     *logrus.Logger
}

// NewController creates a session controller for the given session ID.
func NewController(sessionID string, log *logrus.Logger) *Controller {
	return &Controller{
		conversation: model.NewConversation(sessionID),
		log:          log,
	}
}

// WithArchive attaches a local message archive.
func (c *Controller) WithArchive(a Archiver) *Controller {
	c.archive = a
	return c
}

// SessionID returns the conversation identifier.
func (c *Controller) SessionID() string {
	return c.conversation.SessionID
}

// =============================================================================
// HISTORY
// =============================================================================

// SetHistory installs messages loaded from the backend, oldest first,
// ahead of anything already appended locally. A slow history load never
// drops a message the user sent while it was in flight.
func (c *Controller) SetHistory(msgs []*model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversation.InstallHistory(msgs)
}

// History returns a snapshot of the transcript in display order.
func (c *Controller) History() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation.History()
}

// MessageCount returns the number of messages in the transcript.
func (c *Controller) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation.MessageCount()
}

// =============================================================================
// SEND LIFECYCLE
// =============================================================================

// BeginSend validates and appends the user's message, marking the session
// busy until the reply lands. The appended message is returned so the UI
// can render it immediately.
func (c *Controller) BeginSend(text string) (*model.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sending {
		return nil, ErrBusy
	}
	c.sending = true

	msg := c.conversation.AppendUserMessage(trimmed)
	c.archiveMessage(msg)
	return msg, nil
}

// CompleteSend appends the agent's reply and reopens the send gate.
func (c *Controller) CompleteSend(replyText string) *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sending = false
	msg := c.conversation.AppendAgentMessage(replyText)
	c.archiveMessage(msg)
	return msg
}

// FailSend reopens the send gate without appending a reply. The user's
// message stays in the transcript.
func (c *Controller) FailSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
}

// Sending reports whether a reply is pending.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// =============================================================================
// SPEECH
// =============================================================================

// EnableSpeech turns the speech flag on. There is no way back off within
// a run; the backend keeps its key until restart too.
func (c *Controller) EnableSpeech() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speechOn = true
}

// SpeechEnabled reports whether speech synthesis is active.
func (c *Controller) SpeechEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speechOn
}

// AttachAudio attaches an audio locator to the message with the given ID.
// Returns the message when the attachment took, nil when the message is
// unknown or already carries audio.
func (c *Controller) AttachAudio(messageID, locator string) *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.conversation.GetMessageByID(messageID)
	if msg == nil {
		c.log.WithField("id", messageID).Warn("audio arrived for unknown message")
		return nil
	}
	if !msg.AttachAudio(locator) {
		return nil
	}

	if c.archive != nil {
		if err := c.archive.MarkAudio(msg.ID); err != nil {
			c.log.WithError(err).Warn("failed to mark audio in archive")
		}
	}
	return msg
}

// archiveMessage mirrors a message to the local archive. Caller holds mu.
func (c *Controller) archiveMessage(msg *model.Message) {
	if c.archive == nil {
		return
	}
	if err := c.archive.AppendMessage(msg); err != nil {
		c.log.WithError(err).Warn("failed to archive message")
	}
}
