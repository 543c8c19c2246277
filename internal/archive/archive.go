// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

// Package archive mirrors the conversation to a local SQLite database.
//
// The backend is the source of truth for history; the archive is a local
// copy that survives backend resets and works for offline inspection.
// Every write is best-effort and the chat never blocks on it.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/AzazMehtiyev/DARK-AI/internal/model"
)

// ErrClosed indicates an operation on a closed archive.
var ErrClosed = errors.New("archive is closed")

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	sender     TEXT NOT NULL,
	message    TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	has_audio  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp);
`

// Archive is a local SQLite mirror of the conversation.
type Archive struct {
	db        *sql.DB
	sessionID string
}

// Open opens (creating if needed) the archive database at path.
func Open(path, sessionID string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Archive{db: db, sessionID: sessionID}, nil
}

// AppendMessage stores one message. The audio locator is not mirrored;
// synthesized audio is ephemeral and can be large.
func (a *Archive) AppendMessage(msg *model.Message) error {
	if a.db == nil {
		return ErrClosed
	}

	hasAudio := 0
	if msg.HasAudio {
		hasAudio = 1
	}

	_, err := a.db.Exec(
		`INSERT OR IGNORE INTO messages (id, session_id, sender, message, timestamp, has_audio)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, a.sessionID, string(msg.Sender), msg.Text,
		msg.CreatedAt.UTC().Format(time.RFC3339Nano), hasAudio,
	)
	if err != nil {
		return fmt.Errorf("failed to archive message: %w", err)
	}
	return nil
}

// MarkAudio records that a message received an audio attachment.
func (a *Archive) MarkAudio(messageID string) error {
	if a.db == nil {
		return ErrClosed
	}
	_, err := a.db.Exec(`UPDATE messages SET has_audio = 1 WHERE id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark audio: %w", err)
	}
	return nil
}

// Count returns the number of archived messages for this session.
func (a *Archive) Count() (int, error) {
	if a.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := a.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`, a.sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// Recent returns the most recent archived messages, oldest first.
func (a *Archive) Recent(limit int) ([]*model.Message, error) {
	if a.db == nil {
		return nil, ErrClosed
	}

	rows, err := a.db.Query(
		`SELECT id, sender, message, timestamp, has_audio
		 FROM messages WHERE session_id = ?
		 ORDER BY timestamp DESC LIMIT ?`,
		a.sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var newest []*model.Message
	for rows.Next() {
		var (
			msg      model.Message
			sender   string
			ts       string
			hasAudio int
		)
		if err := rows.Scan(&msg.ID, &sender, &msg.Text, &ts, &hasAudio); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Sender = model.Sender(sender)
		msg.HasAudio = hasAudio != 0
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			msg.CreatedAt = parsed
		}
		newest = append(newest, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return model.NormalizeHistory(newest), nil
}

// Close releases the database.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
