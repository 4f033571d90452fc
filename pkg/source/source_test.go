package source_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/diskrescue/preview-cache/pkg/source"
)

func TestGetSourceBackendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.dd")
	if err := os.WriteFile(path, []byte("medium contents"), 0o644); err != nil {
		t.Fatalf("writing test image: %v", err)
	}

	backend, err := source.GetSourceBackend("file", path)
	if err != nil {
		t.Fatalf("GetSourceBackend: %v", err)
	}

	rc, err := backend.ReadRange(context.Background(), 7, 8)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading range: %v", err)
	}
	if string(got) != "contents" {
		t.Errorf("read %q, want %q", got, "contents")
	}
}

func TestGetSourceBackendFileMissing(t *testing.T) {
	if _, err := source.GetSourceBackend("file", filepath.Join(t.TempDir(), "nope.dd")); err == nil {
		t.Error("expected error for missing image")
	}
}

func TestGetSourceBackendInvalid(t *testing.T) {
	if _, err := source.GetSourceBackend("carrier-pigeon", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}
