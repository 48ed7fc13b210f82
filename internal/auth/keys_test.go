package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()

	keyHex, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, keyHex, keyHexLength)

	decoded, err := hex.DecodeString(keyHex)
	require.NoError(t, err)
	assert.Len(t, decoded, keyLength)

	// A second load returns the same key.
	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, keyHex, again)

	// The key file is private to the server user.
	info, err := os.Stat(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadOrGenerateKey_RejectsCorruptKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("nonsense"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
