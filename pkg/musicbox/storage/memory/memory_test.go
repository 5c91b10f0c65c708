package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahzod418/musicbox/pkg/musicbox"
	memorystorage "github.com/shahzod418/musicbox/pkg/musicbox/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "user/1/avatar/me.png"
	testData := "Hello, World! This is test data."

	t.Run("Upload", func(t *testing.T) {
		err := backend.Upload(ctx, strings.NewReader(testData), musicbox.UploadParams{ObjectKey: testKey, MimeType: "image/png"})
		assert.NoError(t, err)

		mimeType, ok := backend.MimeType(testKey)
		assert.True(t, ok)
		assert.Equal(t, "image/png", mimeType)
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, strings.NewReader("x"), musicbox.UploadParams{ObjectKey: "user/10/avatar/a.png"}))

		keys, err := backend.List(ctx, "user/1/")
		require.NoError(t, err)
		assert.Equal(t, []string{testKey}, keys)

		keys, err = backend.List(ctx, "user/")
		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.Download(ctx, testKey)
		assert.ErrorIs(t, err, musicbox.ErrObjectNotFound)
		assert.ErrorIs(t, err, musicbox.ErrNotFound)
	})

	t.Run("DeleteNonExistent", func(t *testing.T) {
		assert.NoError(t, backend.Delete(ctx, "non/existent/key"))
	})

	t.Run("DefaultMimeType", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, strings.NewReader("x"), musicbox.UploadParams{ObjectKey: "k"}))
		mimeType, _ := backend.MimeType("k")
		assert.Equal(t, "application/octet-stream", mimeType)
	})
}
