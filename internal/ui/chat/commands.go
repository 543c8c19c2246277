// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Commands capture their inputs as locals instead of closing over the
// model, so a command never races a later Update. Backend deadlines come
// from the configured request timeout; retries inside the client have to
// fit within it.

func healthCheckCmd(backend Backend, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return HealthCheckMsg{Err: backend.Health(ctx)}
	}
}

func loadHistoryCmd(backend Backend, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msgs, err := backend.History(ctx)
		if err != nil {
			return HistoryFailedMsg{Err: err}
		}
		return HistoryLoadedMsg{Messages: msgs}
	}
}

func sendCmd(backend Backend, text string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply, err := backend.Chat(ctx, text)
		if err != nil {
			return SendFailedMsg{Err: err}
		}
		return AgentReplyMsg{Reply: reply}
	}
}

func configureSpeechCmd(backend Backend, apiKey string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return SpeechConfiguredMsg{Err: backend.ConfigureSpeech(ctx, apiKey)}
	}
}

func synthesizeCmd(backend Backend, messageID, text string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		locator, err := backend.Synthesize(ctx, text)
		return SpeechReadyMsg{MessageID: messageID, Locator: locator, Err: err}
	}
}

func autoplayCmd(delay time.Duration, locator string) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return AutoplayMsg{Locator: locator}
	})
}

func playCmd(player Player, locator string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := player.Play(ctx, locator); err != nil {
			return PlaybackFailedMsg{Err: err}
		}
		return nil
	}
}

func startShareCmd(share Sharer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return ShareStartedMsg{Err: share.Start(ctx)}
	}
}

// waitShareEventCmd blocks on the share event channel. Reissued after
// every delivered event.
func waitShareEventCmd(share Sharer) tea.Cmd {
	return func() tea.Msg {
		return ShareEventMsg{Event: <-share.Events()}
	}
}
