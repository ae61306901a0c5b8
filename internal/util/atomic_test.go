package util

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, werr := w.Write([]byte("hello"))
		return werr
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected hello, got %q", data)
	}
}

func TestWriteFileAtomic_NoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("write failed")
	})
	if err == nil {
		t.Fatal("Expected error from writer")
	}

	// The target must not exist and no temp file may linger
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected no target file after failed write")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty dir, found %d entries", len(entries))
	}
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	for _, content := range []string{"first", "second"} {
		err := WriteFileAtomic(path, func(w io.Writer) error {
			_, werr := w.Write([]byte(content))
			return werr
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("Expected overwrite, got %q", data)
	}
}
