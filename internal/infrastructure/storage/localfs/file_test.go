package localfs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/studymate/internal/core/domain"
)

var _ domain.FileHandle = (*File)(nil)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestOpenReadsMetadataWithoutContents(t *testing.T) {
	path := writeFile(t, "notes.pdf", "%PDF")

	f, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.Name() != "notes.pdf" {
		t.Fatalf("expected name notes.pdf, got %q", f.Name())
	}
	if f.MimeType() != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", f.MimeType())
	}
	if f.Size() != 4 {
		t.Fatalf("expected size 4, got %d", f.Size())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.Bytes(); err == nil {
		t.Fatalf("expected Bytes to read from disk after Open")
	}
}

func TestBytesReturnsCurrentContents(t *testing.T) {
	path := writeFile(t, "notes.txt", "old")
	f, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.WriteFile(path, []byte("new"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	data, err := f.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("expected new, got %q", data)
	}
}

func TestOpenRejectsOversizedFile(t *testing.T) {
	path := writeFile(t, "big.txt", "0123456789")
	_, err := Open(path, 5)
	if err == nil || !strings.Contains(err.Error(), "larger than 5 bytes") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestOpenRejectsDirectoryAndMissingPath(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir, 0); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
	if _, err := Open(filepath.Join(dir, "missing.pdf"), 0); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
