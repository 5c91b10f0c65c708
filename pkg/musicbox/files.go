package musicbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how much of an upload is buffered to detect its MIME type.
const sniffLen = 3072

// File is an upload waiting to be attached to an entity.
type File struct {
	Name        string // client file name, only its extension is kept
	ContentType string // sniffed when empty
	Size        int64  // -1 when unknown
	Reader      io.Reader

	storedName string
}

// NewFile wraps an in-memory upload.
func NewFile(name string, data []byte) *File {
	return &File{Name: name, Size: int64(len(data)), Reader: bytes.NewReader(data)}
}

// StoredName returns the name the file will be stored under, assigning it on
// first use. The name is a random UUID plus the file's extension.
func (f *File) StoredName() (string, error) {
	if f.storedName != "" {
		return f.storedName, nil
	}
	if f.Reader == nil {
		return "", validationError("file %q has no content", f.Name)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload %q: %w", f.Name, err)
	}
	head = head[:n]
	f.Reader = io.MultiReader(bytes.NewReader(head), f.Reader)

	mime := mimetype.Detect(head)
	if f.ContentType == "" {
		f.ContentType = mime.String()
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == "" || len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = mime.Extension()
	}
	f.storedName = uuid.NewString() + ext
	return f.storedName, nil
}

// NamespaceDir returns the directory holding every resource of owner.
func NamespaceDir(owner Owner) string {
	return path.Join(string(owner.Role), strconv.FormatInt(owner.ID, 10))
}

// ObjectKey returns the canonical key {ownerRole}/{ownerId}/{resourceType}/{storedName}.
func ObjectKey(owner Owner, typ ResourceType, storedName string) string {
	return path.Join(NamespaceDir(owner), string(typ), storedName)
}

// FileManager keeps stored objects in step with the file names held by
// repository rows. Writes happen before deletes so an owner is never left
// without bytes for a name the repository has committed.
type FileManager struct {
	store  BlobStore
	logger *slog.Logger
	events EventSink
}

// NewFileManager creates a file manager over store. A nil logger or sink
// falls back to slog.Default and a no-op sink.
func NewFileManager(store BlobStore, logger *slog.Logger, events EventSink) *FileManager {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = NewNoopEventSink()
	}
	return &FileManager{store: store, logger: logger, events: events}
}

// Add writes file into the (owner, typ) slot and returns its stored name.
func (m *FileManager) Add(ctx context.Context, owner Owner, typ ResourceType, file *File) (string, error) {
	name, err := file.StoredName()
	if err != nil {
		return "", err
	}

	key := ObjectKey(owner, typ, name)
	params := UploadParams{ObjectKey: key, MimeType: file.ContentType, Size: file.Size}
	if err := m.store.Upload(ctx, file.Reader, params); err != nil {
		return "", &StorageError{Key: key, Op: "add", Kind: ErrStorageWrite, Err: err}
	}

	m.logger.Debug("resource stored", "key", key, "mime_type", file.ContentType)
	return name, nil
}

// Update writes file and only then deletes the object named previous. A
// failed or redundant delete of the previous object is logged, not returned.
func (m *FileManager) Update(ctx context.Context, owner Owner, typ ResourceType, file *File, previous *string) (string, error) {
	name, err := m.Add(ctx, owner, typ, file)
	if err != nil {
		return "", err
	}

	if previous != nil && *previous != name {
		m.cleanup(ctx, "update", ObjectKey(owner, typ, *previous))
	}
	return name, nil
}

// Remove deletes the object named storedName. A nil name or an already
// missing object is a successful no-op.
func (m *FileManager) Remove(ctx context.Context, owner Owner, typ ResourceType, storedName *string) error {
	if storedName == nil {
		return nil
	}

	key := ObjectKey(owner, typ, *storedName)
	if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return &StorageError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// RemoveResources deletes everything stored for the owner and then the
// emptied directories. Failures are logged and skipped; the number of
// objects deleted is returned.
func (m *FileManager) RemoveResources(ctx context.Context, ownerID int64, role OwnerRole) int {
	owner := Owner{ID: ownerID, Role: role}
	dir := NamespaceDir(owner)

	keys, err := m.store.List(ctx, dir+"/")
	if err != nil {
		m.cleanupFailed(ctx, "remove_resources", dir, err)
	}

	removed := 0
	for _, key := range keys {
		if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
			m.cleanupFailed(ctx, "remove_resources", key, err)
			continue
		}
		removed++
	}

	for _, typ := range ResourceTypes {
		if err := m.store.DeleteDirIfEmpty(ctx, path.Join(dir, string(typ))); err != nil {
			m.cleanupFailed(ctx, "remove_resources", path.Join(dir, string(typ)), err)
		}
	}
	if err := m.store.DeleteDirIfEmpty(ctx, dir); err != nil {
		m.cleanupFailed(ctx, "remove_resources", dir, err)
	}

	m.logger.Info("owner resources removed", "owner_role", role, "owner_id", ownerID, "objects", removed)
	return removed
}

// Get returns the bytes stored under storedName.
func (m *FileManager) Get(ctx context.Context, owner Owner, typ ResourceType, storedName *string) ([]byte, error) {
	if storedName == nil || *storedName == "" {
		return nil, ErrFileNotAttached
	}

	key := ObjectKey(owner, typ, *storedName)
	reader, err := m.store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, &StorageError{Key: key, Op: "get", Kind: ErrStorageRead, Err: err}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &StorageError{Key: key, Op: "get", Kind: ErrStorageRead, Err: err}
	}
	return data, nil
}

// Namespaces returns the ids of every owner of the given role that has
// something stored.
func (m *FileManager) Namespaces(ctx context.Context, role OwnerRole) ([]int64, error) {
	keys, err := m.store.List(ctx, string(role)+"/")
	if err != nil {
		return nil, &StorageError{Key: string(role), Op: "list", Kind: ErrStorageRead, Err: err}
	}

	var ids []int64
	for _, key := range keys {
		parts := strings.SplitN(strings.TrimPrefix(key, string(role)+"/"), "/", 2)
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			m.logger.Warn("skipping foreign key in namespace", "key", key)
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *FileManager) cleanup(ctx context.Context, op, key string) {
	if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		m.cleanupFailed(ctx, op, key, err)
	}
}

func (m *FileManager) cleanupFailed(ctx context.Context, op, key string, err error) {
	m.logger.Warn("resource cleanup failed", "op", op, "key", key, "error", err)
	if serr := m.events.CleanupFailed(ctx, key, err); serr != nil {
		m.logger.Warn("event sink failed", "event", "cleanup_failed", "error", serr)
	}
}
