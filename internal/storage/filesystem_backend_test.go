package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *FilesystemBackend {
	t.Helper()
	signer := NewURLSigner("http://localhost/attachments", []byte("test-signing-key"))
	backend, err := NewFilesystemBackend(t.TempDir(), signer)
	require.NoError(t, err)
	return backend
}

func TestFilesystemStoreRetrieve(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	path := ObjectPath("acme", 15, 42, "invoice.pdf")

	require.NoError(t, backend.Store(ctx, path, "application/pdf", []byte("pdf bytes")))

	got, err := backend.Retrieve(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), got)

	exists, err := backend.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFilesystemStoreOverwrites(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	path := ObjectPath("acme", 1, 1, "report.txt")

	require.NoError(t, backend.Store(ctx, path, "text/plain", []byte("first")))
	require.NoError(t, backend.Store(ctx, path, "text/plain", []byte("second")))

	got, err := backend.Retrieve(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFilesystemDelete(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	path := ObjectPath("acme", 1, 1, "gone.txt")

	require.NoError(t, backend.Store(ctx, path, "text/plain", []byte("x")))
	require.NoError(t, backend.Delete(ctx, path))

	exists, err := backend.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing object is not an error.
	assert.NoError(t, backend.Delete(ctx, path))
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	for _, path := range []string{"../escape", "a/../../escape", "/etc/passwd"} {
		assert.Error(t, backend.Store(ctx, path, "text/plain", []byte("x")), path)
	}
}

func TestFilesystemSignedURL(t *testing.T) {
	backend := newTestBackend(t)

	u, err := backend.SignedURL("acme/1/1/file.txt", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost/attachments/acme/1/1/file.txt?expires=")
	assert.Contains(t, u, "sig=")
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "acme/15/42/invoice.pdf", ObjectPath("acme", 15, 42, "invoice.pdf"))
}
