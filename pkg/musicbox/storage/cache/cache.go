package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

const defaultKeyPrefix = "musicbox:blob:"

// Config controls what the cache keeps
type Config struct {
	TTL           time.Duration // default 10m
	MaxObjectSize int64         // objects above this bypass the cache, default 1 MiB
	KeyPrefix     string
}

// Store is a read-through Redis cache in front of another BlobStore.
//
// Every object key has a generation counter in Redis and cached bytes are
// stored under the generation that was current when the fill started. Upload
// and Delete bump the generation after touching the backing store, so a fill
// racing with a delete lands under a generation nobody reads any more.
// Generation keys live for twice the entry TTL. Redis failures on reads are
// logged and the call falls through to the backing store; a failed bump on
// Delete is returned because the cached copy may still be served.
type Store struct {
	next   musicbox.BlobStore
	client *redis.Client
	config Config
	logger *slog.Logger
}

// New wraps next with a Redis read cache
func New(next musicbox.BlobStore, client *redis.Client, config Config, logger *slog.Logger) *Store {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.MaxObjectSize <= 0 {
		config.MaxObjectSize = 1 << 20
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, client: client, config: config, logger: logger}
}

func (s *Store) generationKey(objectKey string) string {
	return s.config.KeyPrefix + "gen:" + objectKey
}

func (s *Store) entryKey(objectKey, generation string) string {
	return s.config.KeyPrefix + objectKey + "@" + generation
}

// generation returns the current generation of objectKey, "0" when unset
func (s *Store) generation(ctx context.Context, objectKey string) (string, error) {
	gen, err := s.client.Get(ctx, s.generationKey(objectKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// bump moves objectKey to a new generation, orphaning every cached copy
func (s *Store) bump(ctx context.Context, objectKey string) error {
	key := s.generationKey(objectKey)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 2*s.config.TTL)
		return nil
	})
	return err
}

// Upload writes through and moves the key to a new generation. Stored names
// are never reused, so a failed bump is only logged.
func (s *Store) Upload(ctx context.Context, reader io.Reader, params musicbox.UploadParams) error {
	if err := s.next.Upload(ctx, reader, params); err != nil {
		return err
	}
	if err := s.bump(ctx, params.ObjectKey); err != nil {
		s.logger.Warn("blob cache invalidation failed", "key", params.ObjectKey, "error", err)
	}
	return nil
}

// Download serves from Redis when possible and fills it on a miss
func (s *Store) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	gen, err := s.generation(ctx, objectKey)
	if err != nil {
		s.logger.Warn("blob cache read failed", "key", objectKey, "error", err)
		return s.next.Download(ctx, objectKey)
	}

	entry := s.entryKey(objectKey, gen)
	data, err := s.client.Get(ctx, entry).Bytes()
	if err == nil {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	if !errors.Is(err, redis.Nil) {
		s.logger.Warn("blob cache read failed", "key", objectKey, "error", err)
	}

	rc, err := s.next.Download(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	head, err := io.ReadAll(io.LimitReader(rc, s.config.MaxObjectSize+1))
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to read %s: %w", objectKey, err)
	}
	if int64(len(head)) > s.config.MaxObjectSize {
		return struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), rc), rc}, nil
	}
	rc.Close()

	if err := s.client.Set(ctx, entry, head, s.config.TTL).Err(); err != nil {
		s.logger.Warn("blob cache fill failed", "key", objectKey, "error", err)
	}
	return io.NopCloser(bytes.NewReader(head)), nil
}

// Delete removes the object and retires its cached copies
func (s *Store) Delete(ctx context.Context, objectKey string) error {
	if err := s.next.Delete(ctx, objectKey); err != nil {
		return err
	}
	if err := s.bump(ctx, objectKey); err != nil {
		return fmt.Errorf("failed to invalidate cached %s: %w", objectKey, err)
	}
	return nil
}

func (s *Store) DeleteDirIfEmpty(ctx context.Context, dir string) error {
	return s.next.DeleteDirIfEmpty(ctx, dir)
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.next.List(ctx, prefix)
}

var _ musicbox.BlobStore = (*Store)(nil)
