// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package model defines the chat data structures shared across the client:
// messages, the append-only conversation log, and the wire-order helpers for
// the backend history endpoint.
//
// Invariants enforced here:
//   - a message's text never changes after creation
//   - the conversation log is append-only; insertion order is display order
//   - an audio locator is attached at most once, only to agent messages
package model
