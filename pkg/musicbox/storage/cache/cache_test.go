package cache_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahzod418/musicbox/pkg/musicbox"
	"github.com/shahzod418/musicbox/pkg/musicbox/storage/cache"
	memorystorage "github.com/shahzod418/musicbox/pkg/musicbox/storage/memory"
)

func setup(t *testing.T, config cache.Config) (*miniredis.Miniredis, *memorystorage.Backend, *cache.Store) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := memorystorage.New()
	return mr, backing, cache.New(backing, client, config, nil)
}

// cached reports whether any generation of key holds bytes in Redis
func cached(mr *miniredis.Miniredis, key string) bool {
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "musicbox:blob:"+key+"@") {
			return true
		}
	}
	return false
}

func read(t *testing.T, store musicbox.BlobStore, key string) string {
	t.Helper()
	rc, err := store.Download(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestStore_ReadThrough(t *testing.T) {
	mr, backing, store := setup(t, cache.Config{TTL: time.Minute})
	ctx := context.Background()
	key := "artist/1/cover/a.jpg"

	require.NoError(t, store.Upload(ctx, strings.NewReader("cover"), musicbox.UploadParams{ObjectKey: key}))
	assert.False(t, cached(mr, key))

	t.Run("miss fills the cache", func(t *testing.T) {
		assert.Equal(t, "cover", read(t, store, key))
		assert.True(t, cached(mr, key))
	})

	t.Run("hit does not touch the backing store", func(t *testing.T) {
		require.NoError(t, backing.Delete(ctx, key))
		assert.Equal(t, "cover", read(t, store, key))
	})

	t.Run("entries expire", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		_, err := store.Download(ctx, key)
		assert.ErrorIs(t, err, musicbox.ErrObjectNotFound)
	})
}

func TestStore_Invalidation(t *testing.T) {
	_, _, store := setup(t, cache.Config{})
	ctx := context.Background()
	key := "user/1/avatar/a.png"

	require.NoError(t, store.Upload(ctx, strings.NewReader("v1"), musicbox.UploadParams{ObjectKey: key}))
	assert.Equal(t, "v1", read(t, store, key))

	require.NoError(t, store.Upload(ctx, strings.NewReader("v2"), musicbox.UploadParams{ObjectKey: key}))
	assert.Equal(t, "v2", read(t, store, key))

	require.NoError(t, store.Delete(ctx, key))
	_, err := store.Download(ctx, key)
	assert.ErrorIs(t, err, musicbox.ErrNotFound)
}

func TestStore_LargeObjectsBypass(t *testing.T) {
	mr, _, store := setup(t, cache.Config{MaxObjectSize: 4})
	ctx := context.Background()
	key := "artist/1/audio/song.mp3"

	payload := bytes.Repeat([]byte("a"), 64)
	require.NoError(t, store.Upload(ctx, bytes.NewReader(payload), musicbox.UploadParams{ObjectKey: key}))

	assert.Equal(t, string(payload), read(t, store, key))
	assert.False(t, cached(mr, key))
}

func TestStore_RedisDown(t *testing.T) {
	mr, _, store := setup(t, cache.Config{})
	ctx := context.Background()
	key := "artist/2/avatar/a.png"

	require.NoError(t, store.Upload(ctx, strings.NewReader("still works"), musicbox.UploadParams{ObjectKey: key}))
	mr.Close()

	assert.Equal(t, "still works", read(t, store, key))
}

// hookedBackend runs a callback once, after the backing read of a download
type hookedBackend struct {
	*memorystorage.Backend
	afterDownload func()
}

func (b *hookedBackend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := b.Backend.Download(ctx, key)
	if hook := b.afterDownload; hook != nil {
		b.afterDownload = nil
		hook()
	}
	return rc, err
}

func TestStore_FillRacingDelete(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &hookedBackend{Backend: memorystorage.New()}
	store := cache.New(backing, client, cache.Config{TTL: time.Minute}, nil)
	ctx := context.Background()
	key := "artist/3/cover/old.png"

	require.NoError(t, store.Upload(ctx, strings.NewReader("old"), musicbox.UploadParams{ObjectKey: key}))

	backing.afterDownload = func() {
		require.NoError(t, store.Delete(ctx, key))
	}
	assert.Equal(t, "old", read(t, store, key))

	_, err = store.Download(ctx, key)
	assert.ErrorIs(t, err, musicbox.ErrObjectNotFound)
}

func TestStore_DeleteReportsFailedInvalidation(t *testing.T) {
	mr, backing, store := setup(t, cache.Config{})
	ctx := context.Background()
	key := "user/4/avatar/a.png"

	require.NoError(t, store.Upload(ctx, strings.NewReader("v1"), musicbox.UploadParams{ObjectKey: key}))
	assert.Equal(t, "v1", read(t, store, key))

	mr.Close()
	assert.Error(t, store.Delete(ctx, key))

	_, err := backing.Download(ctx, key)
	assert.ErrorIs(t, err, musicbox.ErrObjectNotFound)
}
