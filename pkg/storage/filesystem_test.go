package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.SaveStream("2026/08/bukti.png", strings.NewReader("evidence"))
	require.NoError(t, err)
	assert.Equal(t, "2026/08/bukti.png", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "evidence", string(content))

	require.NoError(t, store.Delete(rel))
	_, err = store.Open(rel)
	assert.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(filepath.Dir(base), "secret.env")
	require.NoError(t, os.WriteFile(outside, []byte("JWT_SECRET=oops"), 0o600))
	defer os.Remove(outside) //nolint:errcheck

	store, err := NewLocalStorage(filepath.Join(base, "uploads"))
	require.NoError(t, err)

	_, err = store.Open("../../secret.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes storage root")

	_, err = store.SaveStream("../evil.txt", strings.NewReader("x"))
	assert.Error(t, err)

	err = store.Delete("../../secret.env")
	assert.Error(t, err)
}

func TestLocalStorageRejectsAbsolutePath(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "secret.env")
	require.NoError(t, os.WriteFile(outside, []byte("JWT_SECRET=oops"), 0o600))

	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file path")

	_, err = store.SaveStream(outside, strings.NewReader("x"))
	assert.Error(t, err)
}

func TestLocalStorageRejectsEmptyName(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("")
	assert.Error(t, err)
}
