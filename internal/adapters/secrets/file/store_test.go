package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "blob key is empty"},
		{name: "whitespace", key: "   ", wantErr: "blob key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid blob key"},
		{name: "traversal", key: "../escape", wantErr: "invalid blob key"},
		{name: "deep traversal", key: "../../secret", wantErr: "invalid blob key"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := store.Write(context.Background(), tc.key, []byte("value"))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStoreWriteReadRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	key := "credentials/main.bin"
	want := []byte{0x00, 0x01, 0xfe, 0xff}

	require.NoError(t, store.Write(context.Background(), key, want))

	got, err := store.Read(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(filepath.Join(root, key))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(blobFileMode), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Join(root, "credentials"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(storeDirMode), dirInfo.Mode().Perm())
}

func TestStoreWriteReplacesWithoutLeavingTempFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Write(context.Background(), "cookies/main.bin", []byte("first")))
	require.NoError(t, store.Write(context.Background(), "cookies/main.bin", []byte("second")))

	entries, err := os.ReadDir(filepath.Join(root, "cookies"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "main.bin", entries[0].Name())

	got, err := store.Read(context.Background(), "cookies/main.bin")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestStoreReadMissingWrapsNotExist(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Read(context.Background(), "credentials/nobody.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreRemoveIsIdempotentWhenBlobMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	key := "credentials/main.bin"

	require.NoError(t, store.Remove(context.Background(), key))
	require.NoError(t, store.Remove(context.Background(), key))
}

func TestStoreHonoursCanceledContext(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Write(ctx, "k", []byte("v")), context.Canceled)
	_, err := store.Read(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Remove(ctx, "k"), context.Canceled)
}
