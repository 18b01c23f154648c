package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.lsh")
	if err := os.WriteFile(path, make([]byte, 123), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := fileSize(path)
	if err != nil {
		t.Fatalf("fileSize: %v", err)
	}
	if size != 123 {
		t.Errorf("fileSize = %d, want 123", size)
	}

	if _, err := fileSize(filepath.Join(t.TempDir(), "missing.lsh")); err == nil {
		t.Error("fileSize of a missing file: want error")
	}
}
