// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package session

import (
	"errors"
	"testing"

	"github.com/AzazMehtiyev/DARK-AI/internal/logging"
	"github.com/AzazMehtiyev/DARK-AI/internal/model"
)

func newTestController() *Controller {
	return NewController("main_session", logging.Discard())
}

// =============================================================================
// SEND LIFECYCLE TESTS
// =============================================================================

func TestBeginSendAppendsUserMessage(t *testing.T) {
	c := newTestController()

	msg, err := c.BeginSend("  merhaba  ")
	if err != nil {
		t.Fatalf("BeginSend failed: %v", err)
	}
	if msg.Text != "merhaba" {
		t.Errorf("Text = %q, want trimmed", msg.Text)
	}
	if msg.Sender != model.SenderUser {
		t.Errorf("Sender = %q", msg.Sender)
	}
	if !c.Sending() {
		t.Error("session should be busy after BeginSend")
	}
	if c.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", c.MessageCount())
	}
}

func TestBeginSendRejectsEmpty(t *testing.T) {
	c := newTestController()

	if _, err := c.BeginSend("   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
	if c.Sending() {
		t.Error("rejected send must not mark the session busy")
	}
	if c.MessageCount() != 0 {
		t.Error("rejected send must not append a message")
	}
}

func TestBeginSendRejectsWhileBusy(t *testing.T) {
	c := newTestController()

	if _, err := c.BeginSend("first"); err != nil {
		t.Fatalf("BeginSend failed: %v", err)
	}
	if _, err := c.BeginSend("second"); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	if c.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", c.MessageCount())
	}
}

func TestCompleteSend(t *testing.T) {
	c := newTestController()
	c.BeginSend("merhaba")

	reply := c.CompleteSend("Ben DARK AI'yım.")
	if reply.Sender != model.SenderAgent {
		t.Errorf("Sender = %q", reply.Sender)
	}
	if c.Sending() {
		t.Error("session should be free after CompleteSend")
	}

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("len = %d, want 2", len(history))
	}
	if history[0].Text != "merhaba" || history[1].Text != "Ben DARK AI'yım." {
		t.Error("transcript order wrong")
	}
}

func TestFailSendKeepsUserMessage(t *testing.T) {
	c := newTestController()
	c.BeginSend("merhaba")

	c.FailSend()
	if c.Sending() {
		t.Error("session should be free after FailSend")
	}
	if c.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want user message kept", c.MessageCount())
	}

	// The gate must reopen for the next send.
	if _, err := c.BeginSend("tekrar"); err != nil {
		t.Errorf("BeginSend after FailSend failed: %v", err)
	}
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestSetHistory(t *testing.T) {
	c := newTestController()
	c.SetHistory([]*model.Message{
		model.NewAgentMessage("hi"),
		model.NewUserMessage("hello"),
	})

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("len = %d", len(history))
	}
	if history[0].Text != "hi" {
		t.Errorf("history[0] = %q", history[0].Text)
	}
}

func TestLateHistoryLoadKeepsPendingSend(t *testing.T) {
	c := newTestController()
	if _, err := c.BeginSend("merhaba"); err != nil {
		t.Fatalf("BeginSend failed: %v", err)
	}

	// The history response lands after the user already sent a message.
	c.SetHistory([]*model.Message{model.NewAgentMessage("hi")})

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("len = %d, want loaded history plus the pending message", len(history))
	}
	if history[0].Text != "hi" || history[1].Text != "merhaba" {
		t.Errorf("transcript = [%q, %q]", history[0].Text, history[1].Text)
	}
	if !c.Sending() {
		t.Error("the pending send should still hold the gate")
	}

	// The in-flight turn completes normally against the merged transcript.
	c.CompleteSend("selam")
	if c.MessageCount() != 3 {
		t.Errorf("MessageCount = %d, want 3", c.MessageCount())
	}
}

// =============================================================================
// SPEECH TESTS
// =============================================================================

func TestEnableSpeechIsOneWay(t *testing.T) {
	c := newTestController()

	if c.SpeechEnabled() {
		t.Error("speech should start disabled")
	}
	c.EnableSpeech()
	if !c.SpeechEnabled() {
		t.Error("speech should be enabled")
	}
	// Enabling again is harmless.
	c.EnableSpeech()
	if !c.SpeechEnabled() {
		t.Error("speech should stay enabled")
	}
}

func TestAttachAudio(t *testing.T) {
	c := newTestController()
	c.BeginSend("merhaba")
	reply := c.CompleteSend("Ben DARK AI'yım.")

	got := c.AttachAudio(reply.ID, "data:audio/mpeg;base64,AAAA")
	if got == nil {
		t.Fatal("AttachAudio should succeed")
	}
	if !got.HasAudio {
		t.Error("HasAudio should be set")
	}

	// Second attach must be refused.
	if c.AttachAudio(reply.ID, "data:audio/mpeg;base64,BBBB") != nil {
		t.Error("second attach should return nil")
	}
	if got.AudioRef != "data:audio/mpeg;base64,AAAA" {
		t.Error("locator was overwritten")
	}
}

func TestAttachAudioUnknownMessage(t *testing.T) {
	c := newTestController()
	if c.AttachAudio("no-such-id", "data:audio/mpeg;base64,AAAA") != nil {
		t.Error("unknown message should return nil")
	}
}

// =============================================================================
// ARCHIVE TESTS
// =============================================================================

type recordingArchive struct {
	msgs    []*model.Message
	audioID []string
	err     error
}

func (r *recordingArchive) AppendMessage(msg *model.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingArchive) MarkAudio(messageID string) error {
	r.audioID = append(r.audioID, messageID)
	return r.err
}

func TestArchiveReceivesMessages(t *testing.T) {
	arc := &recordingArchive{}
	c := newTestController().WithArchive(arc)

	c.BeginSend("merhaba")
	c.CompleteSend("selam")

	if len(arc.msgs) != 2 {
		t.Fatalf("archived %d messages, want 2", len(arc.msgs))
	}
	if arc.msgs[0].Sender != model.SenderUser || arc.msgs[1].Sender != model.SenderAgent {
		t.Error("archive order wrong")
	}
}

func TestArchiveRecordsAudioAttachment(t *testing.T) {
	arc := &recordingArchive{}
	c := newTestController().WithArchive(arc)

	c.BeginSend("merhaba")
	reply := c.CompleteSend("selam")

	c.AttachAudio(reply.ID, "data:audio/mpeg;base64,AAAA")
	if len(arc.audioID) != 1 || arc.audioID[0] != reply.ID {
		t.Errorf("archived audio ids = %v, want [%s]", arc.audioID, reply.ID)
	}

	// Refused attachments must not reach the archive.
	c.AttachAudio(reply.ID, "data:audio/mpeg;base64,BBBB")
	c.AttachAudio("no-such-id", "data:audio/mpeg;base64,CCCC")
	if len(arc.audioID) != 1 {
		t.Errorf("archived audio ids = %v, want one entry", arc.audioID)
	}
}

func TestArchiveFailureIsNonFatal(t *testing.T) {
	arc := &recordingArchive{err: errors.New("disk full")}
	c := newTestController().WithArchive(arc)

	if _, err := c.BeginSend("merhaba"); err != nil {
		t.Errorf("archive failure must not fail the send: %v", err)
	}
	if c.MessageCount() != 1 {
		t.Error("message should still land in the transcript")
	}
}
