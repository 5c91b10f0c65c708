package metrics

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

// Storage metrics
var (
	// Blob store operation counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "musicbox",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total blob store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Blob store operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "musicbox",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Blob store operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend", "operation"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "musicbox",
			Subsystem: "storage",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"backend", "content_type"},
	)
)

// RecordStorageOperation records one blob store call. A not-found result is
// counted separately from failures.
func RecordStorageOperation(backend, operation string, err error, durationSec float64) {
	status := "success"
	switch {
	case errors.Is(err, musicbox.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StorageDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// Store instruments another BlobStore
type Store struct {
	next    musicbox.BlobStore
	backend string
}

// InstrumentStore wraps next, labelling its metrics with backend
func InstrumentStore(next musicbox.BlobStore, backend string) *Store {
	return &Store{next: next, backend: backend}
}

func (s *Store) Upload(ctx context.Context, reader io.Reader, params musicbox.UploadParams) error {
	start := time.Now()
	counter := &countingReader{r: reader}
	err := s.next.Upload(ctx, counter, params)
	RecordStorageOperation(s.backend, "upload", err, time.Since(start).Seconds())
	if err == nil {
		UploadBytesTotal.WithLabelValues(s.backend, params.MimeType).Add(float64(counter.n))
	}
	return err
}

func (s *Store) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.next.Download(ctx, objectKey)
	RecordStorageOperation(s.backend, "download", err, time.Since(start).Seconds())
	return rc, err
}

func (s *Store) Delete(ctx context.Context, objectKey string) error {
	start := time.Now()
	err := s.next.Delete(ctx, objectKey)
	RecordStorageOperation(s.backend, "delete", err, time.Since(start).Seconds())
	return err
}

func (s *Store) DeleteDirIfEmpty(ctx context.Context, dir string) error {
	start := time.Now()
	err := s.next.DeleteDirIfEmpty(ctx, dir)
	RecordStorageOperation(s.backend, "delete_dir", err, time.Since(start).Seconds())
	return err
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := s.next.List(ctx, prefix)
	RecordStorageOperation(s.backend, "list", err, time.Since(start).Seconds())
	return keys, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ musicbox.BlobStore = (*Store)(nil)
