// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package model

import (
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.ID == "" {
		t.Error("message should have a generated ID")
	}
	if msg.Text != "hello" {
		t.Errorf("Text = %q, want %q", msg.Text, "hello")
	}
	if msg.Sender != SenderUser {
		t.Errorf("Sender = %q, want user", msg.Sender)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if msg.HasAudio || msg.AudioRef != "" {
		t.Error("new message must not carry an audio attachment")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	a := NewUserMessage("a")
	b := NewUserMessage("b")
	if a.ID == b.ID {
		t.Errorf("two messages share ID %q", a.ID)
	}
}

func TestAttachAudio(t *testing.T) {
	msg := NewAgentMessage("merhaba")

	if !msg.AttachAudio("data:audio/mpeg;base64,AAAA") {
		t.Fatal("AttachAudio should succeed for an agent message")
	}
	if !msg.HasAudio {
		t.Error("HasAudio should be true after attach")
	}
	if msg.AudioRef != "data:audio/mpeg;base64,AAAA" {
		t.Errorf("AudioRef = %q", msg.AudioRef)
	}

	// Second attach must not overwrite.
	if msg.AttachAudio("data:audio/mpeg;base64,BBBB") {
		t.Error("AttachAudio should refuse to overwrite")
	}
	if msg.AudioRef != "data:audio/mpeg;base64,AAAA" {
		t.Error("AudioRef was overwritten")
	}
}

func TestAttachAudioRejectsUserMessages(t *testing.T) {
	msg := NewUserMessage("hello")
	if msg.AttachAudio("data:audio/mpeg;base64,AAAA") {
		t.Error("AttachAudio should reject user messages")
	}
	if msg.HasAudio || msg.AudioRef != "" {
		t.Error("user message must stay without audio")
	}
}

func TestAttachAudioRejectsEmptyLocator(t *testing.T) {
	msg := NewAgentMessage("merhaba")
	if msg.AttachAudio("") {
		t.Error("AttachAudio should reject an empty locator")
	}
}

func TestPreview(t *testing.T) {
	msg := NewAgentMessage("Ben DARK AI'yım.")
	if got := msg.Preview(100); got != "Ben DARK AI'yım." {
		t.Errorf("Preview(100) = %q", got)
	}
	if got := msg.Preview(8); got != "Ben D..." {
		t.Errorf("Preview(8) = %q", got)
	}
}

func TestSenderDisplayName(t *testing.T) {
	if SenderUser.DisplayName() != "You" {
		t.Errorf("user display name = %q", SenderUser.DisplayName())
	}
	if SenderAgent.DisplayName() != "DARK AI" {
		t.Errorf("agent display name = %q", SenderAgent.DisplayName())
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversationAppendOrder(t *testing.T) {
	conv := NewConversation("main_session")

	conv.AppendAgentMessage("hi")
	conv.AppendUserMessage("hello")
	conv.AppendAgentMessage("how can I help")

	if conv.MessageCount() != 3 {
		t.Fatalf("MessageCount = %d, want 3", conv.MessageCount())
	}

	want := []string{"hi", "hello", "how can I help"}
	for i, msg := range conv.History() {
		if msg.Text != want[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Text, want[i])
		}
	}
}

func TestGetMessageByID(t *testing.T) {
	conv := NewConversation("main_session")
	first := conv.AppendUserMessage("one")
	conv.AppendUserMessage("two")

	if got := conv.GetMessageByID(first.ID); got != first {
		t.Error("GetMessageByID should return the message by identity")
	}
	if got := conv.GetMessageByID("no-such-id"); got != nil {
		t.Error("unknown ID should return nil")
	}
}

func TestGetLastMessage(t *testing.T) {
	conv := NewConversation("main_session")
	if conv.GetLastMessage() != nil {
		t.Error("empty conversation has no last message")
	}
	last := conv.AppendUserMessage("tail")
	if conv.GetLastMessage() != last {
		t.Error("GetLastMessage should return the newest message")
	}
}

func TestInstallHistory(t *testing.T) {
	conv := NewConversation("main_session")
	conv.InstallHistory([]*Message{
		NewAgentMessage("a"),
		nil,
		NewUserMessage("b"),
	})

	if conv.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2 (nil dropped)", conv.MessageCount())
	}
	if conv.Messages[0].Text != "a" || conv.Messages[1].Text != "b" {
		t.Error("InstallHistory should preserve the given order")
	}
}

func TestInstallHistoryKeepsLocalMessages(t *testing.T) {
	conv := NewConversation("main_session")
	local := conv.AppendUserMessage("merhaba")

	conv.InstallHistory([]*Message{
		NewAgentMessage("hi"),
		NewUserMessage("hello"),
	})

	if conv.MessageCount() != 3 {
		t.Fatalf("MessageCount = %d, want 3", conv.MessageCount())
	}
	if conv.GetLastMessage() != local {
		t.Error("locally appended message should stay at the tail")
	}
	if conv.Messages[0].Text != "hi" || conv.Messages[1].Text != "hello" {
		t.Error("loaded history should sit ahead of local messages")
	}
}

func TestNormalizeHistory(t *testing.T) {
	// The wire carries newest-first; display wants oldest-first.
	wire := []*Message{
		NewAgentMessage("third"),
		NewUserMessage("second"),
		NewAgentMessage("first"),
	}

	got := NormalizeHistory(wire)
	want := []string{"first", "second", "third"}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, msg := range got {
		if msg.Text != want[i] {
			t.Errorf("normalized[%d] = %q, want %q", i, msg.Text, want[i])
		}
	}

	// Input must not be mutated.
	if wire[0].Text != "third" {
		t.Error("NormalizeHistory mutated its input")
	}
}

func TestNormalizeHistoryEmpty(t *testing.T) {
	if got := NormalizeHistory(nil); len(got) != 0 {
		t.Errorf("NormalizeHistory(nil) = %v, want empty", got)
	}
}
