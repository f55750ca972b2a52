package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caimel/mediacore/internal/common"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestPutGet_RoundTrips(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileStore(t)

	require.NoError(t, fs.Put(ctx, "episodes/ep-1/transcript.json", []byte(`{"text":"hi"}`)))

	data, err := fs.Get(ctx, "episodes/ep-1/transcript.json")
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hi"}`, string(data))
}

func TestGet_MissingReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileStore(t)

	_, err := fs.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists_ReflectsPresence(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileStore(t)

	ok, err := fs.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Put(ctx, "a", []byte("x")))
	ok, err = fs.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDelete_RemovesBlobAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileStore(t)

	require.NoError(t, fs.Put(ctx, "a", []byte("x")))
	require.NoError(t, fs.Delete(ctx, "a"))

	_, err := fs.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, fs.Delete(ctx, "a"))
}

func TestSanitizeKey_PreventsPathTraversal(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileStore(t)

	require.NoError(t, fs.Put(ctx, "../../etc/passwd", []byte("x")))

	ok, err := fs.Exists(ctx, "../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, ok, "key should resolve back to the sanitized path, not escape basePath")
}
