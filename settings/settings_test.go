package settings

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetBeforeAnySet(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	blob, err := s.Get()
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(blob))
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))

	doc := `{"theme":"dark","favorites":["avtr_1","avtr_2"],"tags":{"avtr_1":["fav"]}}`
	require.NoError(t, s.Set(json.RawMessage(doc)))

	blob, err := s.Get()
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(blob))
}

func TestSetRejectsInvalidJSON(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	assert.Error(t, s.Set(json.RawMessage("{broken")))
}

func TestBlobSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(json.RawMessage(`{"theme":"light"}`)))
	require.NoError(t, s.Close())

	reopened := openStore(t, path)
	blob, err := reopened.Get()
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(blob))
}
