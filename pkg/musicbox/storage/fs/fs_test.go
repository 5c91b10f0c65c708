package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

func TestFSBackend_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}

	ctx := context.Background()
	key := "artist/1/avatar/face.png"

	// Upload
	data := []byte("hello fs")
	if err := backend.Upload(ctx, bytes.NewReader(data), musicbox.UploadParams{ObjectKey: key}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	// Download
	rc, err := backend.Download(ctx, key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != string(data) {
		t.Fatalf("download mismatch: %q", string(got))
	}

	// List
	keys, err := backend.List(ctx, "artist/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("unexpected keys: %v", keys)
	}

	// Delete
	if err := backend.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, key)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}

	// Delete again is fine
	if err := backend.Delete(ctx, key); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	// Download missing
	if _, err := backend.Download(ctx, key); !errors.Is(err, musicbox.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestFSBackend_DeleteDirIfEmpty(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}
	ctx := context.Background()

	keep := "artist/2/cover/keep.jpg"
	if err := backend.Upload(ctx, bytes.NewReader([]byte("x")), musicbox.UploadParams{ObjectKey: keep}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	// Non-empty directory stays
	if err := backend.DeleteDirIfEmpty(ctx, "artist/2/cover"); err != nil {
		t.Fatalf("delete dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "artist/2/cover")); err != nil {
		t.Fatalf("expected non-empty dir to remain: %v", err)
	}

	// Missing directory is fine
	if err := backend.DeleteDirIfEmpty(ctx, "artist/2/audio"); err != nil {
		t.Fatalf("delete missing dir: %v", err)
	}

	// Emptied directory goes
	if err := backend.Delete(ctx, keep); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := backend.DeleteDirIfEmpty(ctx, "artist/2/cover"); err != nil {
		t.Fatalf("delete dir: %v", err)
	}
	if err := backend.DeleteDirIfEmpty(ctx, "artist/2"); err != nil {
		t.Fatalf("delete dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "artist/2")); !os.IsNotExist(err) {
		t.Fatalf("expected namespace dir removed, stat err=%v", err)
	}
}

func TestFSBackend_RejectsEscapingKeys(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}

	err = backend.Upload(context.Background(), bytes.NewReader(nil), musicbox.UploadParams{ObjectKey: "../outside"})
	if !errors.Is(err, musicbox.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without base dir")
	}
}
