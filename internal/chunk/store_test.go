package chunk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "chunks.json"))
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := tempStore(t)

	chunks, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := tempStore(t)

	in := []Chunk{
		{ID: 1, Text: "We run a 10-week structured programme.", Category: "Programme"},
		{ID: 2, Text: "Students are mentored weekly.", Category: "Default"},
	}
	if err := s.ReplaceAll(in); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d chunks, want 2", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("chunk[%d] = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestFileStore_LoadMalformed(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load()
	if err == nil {
		t.Fatal("Load() = nil error, want *ReadError")
	}
	var re *ReadError
	if !errors.As(err, &re) {
		t.Errorf("error = %T, want *ReadError", err)
	}
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
}

func TestFileStore_RejectsDuplicateIDs(t *testing.T) {
	s := tempStore(t)

	err := s.ReplaceAll([]Chunk{
		{ID: 7, Text: "a", Category: "Default"},
		{ID: 7, Text: "b", Category: "Default"},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("ReplaceAll error = %v, want ErrConflict", err)
	}

	// Nothing must have been written.
	if _, statErr := os.Stat(s.Path()); !os.IsNotExist(statErr) {
		t.Error("chunk file was written despite conflict")
	}
}

func TestFileStore_ReplaceIsFullSnapshot(t *testing.T) {
	s := tempStore(t)

	if err := s.ReplaceAll([]Chunk{{ID: 1, Text: "old", Category: "Default"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := s.ReplaceAll([]Chunk{{ID: 2, Text: "new", Category: "Default"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 || out[0].ID != 2 {
		t.Errorf("got %+v, want only chunk 2", out)
	}
}

func TestFileStore_NoTempFileLeftBehind(t *testing.T) {
	s := tempStore(t)
	if err := s.ReplaceAll([]Chunk{{ID: 1, Text: "x", Category: "Default"}}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory contains %v, want only chunks.json", names)
	}
}
