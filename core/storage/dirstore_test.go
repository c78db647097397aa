package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStoreWriteReturnsURLUnderBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir, "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.Write(context.Background(), "audio-1.mp3", []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://localhost:8080/files/audio-1.mp3" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audio-1.mp3"))
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if len(data) != 2 || data[0] != 0x01 || data[1] != 0x02 {
		t.Fatalf("unexpected stored data %v", data)
	}
}

func TestDirStoreWriteStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir, "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.Write(context.Background(), "../escape.bin", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://localhost:8080/files/escape.bin" {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.bin")); err != nil {
		t.Fatalf("expected file inside storage dir: %v", err)
	}
}

func TestDirStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audio")
	if _, err := NewDirStore(dir, "http://localhost:8080/files"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected a directory")
	}
}
