// ABOUTME: Tests for SQLite-backed client state
// ABOUTME: Verifies pointer persistence across reopen, overwrite, and clear

package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestState(t *testing.T, path string) *SQLiteState {
	s, err := NewSQLiteState(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteState_EmptyPointer(t *testing.T) {
	s := createTestState(t, filepath.Join(t.TempDir(), "state.db"))

	id, err := s.LastSessionID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSQLiteState_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := createTestState(t, filepath.Join(t.TempDir(), "state.db"))

	require.NoError(t, s.SetLastSessionID(ctx, "CHAT-0001"))

	id, err := s.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0001", id)

	// Last write wins
	require.NoError(t, s.SetLastSessionID(ctx, "CHAT-0002"))
	id, err = s.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0002", id)
}

func TestSQLiteState_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteState(path)
	require.NoError(t, err)
	require.NoError(t, s.SetLastSessionID(ctx, "CHAT-0042"))
	require.NoError(t, s.Close())

	reopened := createTestState(t, path)
	id, err := reopened.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0042", id)
}

func TestSQLiteState_Clear(t *testing.T) {
	ctx := context.Background()
	s := createTestState(t, filepath.Join(t.TempDir(), "state.db"))

	require.NoError(t, s.SetLastSessionID(ctx, "CHAT-0001"))
	require.NoError(t, s.ClearLastSessionID(ctx))

	id, err := s.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestMemoryState(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryState()

	id, err := m.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, m.SetLastSessionID(ctx, "CHAT-0007"))
	id, err = m.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CHAT-0007", id)

	require.NoError(t, m.ClearLastSessionID(ctx))
	id, err = m.LastSessionID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}
