package musicbox

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrNotFound indicates an entity or file is absent or hidden from the viewer
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or referential constraint was violated
	ErrConflict = errors.New("conflict")

	// ErrStorageWrite indicates the blob store failed to persist an object
	ErrStorageWrite = errors.New("storage write failed")

	// ErrStorageRead indicates the blob store failed to return an object
	ErrStorageRead = errors.New("storage read failed")

	// ErrValidation indicates a malformed request
	ErrValidation = errors.New("validation failed")
)

// Specific not-found errors. Each one wraps ErrNotFound.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrArtistNotFound  = fmt.Errorf("artist %w", ErrNotFound)
	ErrAlbumNotFound   = fmt.Errorf("album %w", ErrNotFound)
	ErrSongNotFound    = fmt.Errorf("song %w", ErrNotFound)
	ErrObjectNotFound  = fmt.Errorf("object %w", ErrNotFound)
	ErrFileNotAttached = fmt.Errorf("file %w", ErrNotFound)

	ErrLibraryEntryNotFound = fmt.Errorf("library entry %w", ErrNotFound)
)

// EntityError represents a failed operation on a repository entity
type EntityError struct {
	Entity string
	ID     int64
	Op     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation %s failed for id %d: %v", e.Entity, e.Op, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// StorageError represents a failed blob store operation. Kind is one of
// ErrStorageWrite or ErrStorageRead, or nil for delete failures.
type StorageError struct {
	Key  string
	Op   string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
