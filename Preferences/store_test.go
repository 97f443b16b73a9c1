package Preferences

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	return s
}

func TestStoreSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("theme", "light"))
	require.NoError(t, s.Set("theme", "dark"))
	v, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Delete("theme"))
	_, ok, _ = s.Get("theme")
	assert.False(t, ok)
}

func TestPendingSurvey(t *testing.T) {
	p := PendingSurvey{Store: openTestStore(t)}
	assert.False(t, p.IsPending())

	id := "42"
	require.NoError(t, p.SetPending(true, &id))
	assert.True(t, p.IsPending())
	got, ok := p.PendingID()
	assert.True(t, ok)
	assert.Equal(t, "42", got)

	require.NoError(t, p.SetPending(true, nil))
	assert.True(t, p.IsPending())
	_, ok = p.PendingID()
	assert.False(t, ok)

	require.NoError(t, p.Clear())
	assert.False(t, p.IsPending())
}
