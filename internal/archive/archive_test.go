// Copyright (c) 2025 Azad Mehtiyev
// SPDX-License-Identifier: MIT

package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzazMehtiyev/DARK-AI/internal/model"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"), "main_session")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAppendAndCount(t *testing.T) {
	a := openTestArchive(t)

	require.NoError(t, a.AppendMessage(model.NewUserMessage("merhaba")))
	require.NoError(t, a.AppendMessage(model.NewAgentMessage("selam")))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAppendIsIdempotent(t *testing.T) {
	a := openTestArchive(t)

	msg := model.NewUserMessage("merhaba")
	require.NoError(t, a.AppendMessage(msg))
	// Same ID again must not duplicate.
	require.NoError(t, a.AppendMessage(msg))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecentOrder(t *testing.T) {
	a := openTestArchive(t)

	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, a.AppendMessage(model.NewUserMessage(text)))
	}

	msgs, err := a.Recent(2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Oldest first within the returned window.
	assert.Equal(t, "second", msgs[0].Text)
	assert.Equal(t, "third", msgs[1].Text)
}

func TestMarkAudio(t *testing.T) {
	a := openTestArchive(t)

	msg := model.NewAgentMessage("selam")
	require.NoError(t, a.AppendMessage(msg))
	require.NoError(t, a.MarkAudio(msg.ID))

	msgs, err := a.Recent(1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].HasAudio)
}

func TestClosedArchive(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.Close())

	assert.ErrorIs(t, a.AppendMessage(model.NewUserMessage("x")), ErrClosed)

	_, err := a.Count()
	assert.ErrorIs(t, err, ErrClosed)

	// Double close is harmless.
	assert.NoError(t, a.Close())
}
