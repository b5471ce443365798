package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return ls
}

func TestLocalStorage_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	ls := newTestLocalStorage(t)

	require.NoError(t, ls.Save(ctx, "11112222-3333-4444-5555-666677778888", strings.NewReader("zawartosc")))

	stream, err := ls.Get(ctx, "11112222-3333-4444-5555-666677778888")
	require.NoError(t, err)
	defer stream.Close()

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "zawartosc", string(content))
}

func TestLocalStorage_GetMissing(t *testing.T) {
	ls := newTestLocalStorage(t)

	_, err := ls.Get(context.Background(), "99990000-aaaa-bbbb-cccc-ddddeeeeffff")
	require.ErrorIs(t, err, ErrBlobNotFound)
}

func TestLocalStorage_DuplicateCreatesIndependentBlob(t *testing.T) {
	ctx := context.Background()
	ls := newTestLocalStorage(t)

	require.NoError(t, ls.Save(ctx, "11112222-3333-4444-5555-666677778888", strings.NewReader("pierwowzor")))

	copyID, err := ls.Duplicate(ctx, "11112222-3333-4444-5555-666677778888")
	require.NoError(t, err)
	require.NotEqual(t, "11112222-3333-4444-5555-666677778888", copyID)

	// Usunięcie oryginału nie dotyka kopii.
	require.NoError(t, ls.Delete(ctx, "11112222-3333-4444-5555-666677778888"))

	stream, err := ls.Get(ctx, copyID)
	require.NoError(t, err)
	defer stream.Close()

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "pierwowzor", string(content))
}

func TestLocalStorage_DeleteMissingIsNoop(t *testing.T) {
	ls := newTestLocalStorage(t)

	err := ls.Delete(context.Background(), "99990000-aaaa-bbbb-cccc-ddddeeeeffff")
	require.NoError(t, err)
}

func TestMemoryStorage_Roundtrip(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStorage()

	require.NoError(t, ms.Save(ctx, "blob-1", strings.NewReader("dane")))

	copyID, err := ms.Duplicate(ctx, "blob-1")
	require.NoError(t, err)

	require.NoError(t, ms.Delete(ctx, "blob-1"))
	_, err = ms.Get(ctx, "blob-1")
	require.ErrorIs(t, err, ErrBlobNotFound)

	stream, err := ms.Get(ctx, copyID)
	require.NoError(t, err)
	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	stream.Close()
	require.Equal(t, "dane", string(content))
}
