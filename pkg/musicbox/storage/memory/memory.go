package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

// Backend is an in-memory implementation of the musicbox.BlobStore interface.
// Directories are implied by key prefixes, so DeleteDirIfEmpty has nothing to do.
type Backend struct {
	mu              sync.RWMutex
	objects         map[string][]byte
	objectsMimeType map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:         make(map[string][]byte),
		objectsMimeType: make(map[string]string),
	}
}

// Upload stores the reader's bytes under params.ObjectKey
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params musicbox.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = data
	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	b.objectsMimeType[params.ObjectKey] = mimeType
	return nil
}

// Download returns a reader over a copy of the stored bytes
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("%w: %s", musicbox.ErrObjectNotFound, objectKey)
	}

	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete removes the object; missing keys are ignored
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectKey)
	delete(b.objectsMimeType, objectKey)
	return nil
}

// DeleteDirIfEmpty is a no-op
func (b *Backend) DeleteDirIfEmpty(ctx context.Context, dir string) error {
	return nil
}

// List returns the sorted keys below prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// MimeType returns the content type recorded for an object
func (b *Backend) MimeType(objectKey string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	mimeType, exists := b.objectsMimeType[objectKey]
	return mimeType, exists
}

var _ musicbox.BlobStore = (*Backend)(nil)
