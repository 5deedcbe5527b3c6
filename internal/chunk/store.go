package chunk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the full chunk collection. Every write is a complete
// snapshot replace; no partial update operation exists.
type Store interface {
	Load() ([]Chunk, error)
	ReplaceAll(chunks []Chunk) error
}

// FileStore keeps the collection as a JSON array in a single file. Writes go
// through a temp file in the same directory followed by a rename, so a
// concurrent reader never observes a partial write.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore backed by the given path. The parent
// directory is created on the first write if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the full collection. A missing file is an empty collection;
// an unreadable or malformed file is a *ReadError.
func (s *FileStore) Load() ([]Chunk, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []Chunk{}, nil
	}
	if err != nil {
		return nil, &ReadError{Path: s.path, Err: err}
	}

	if len(data) == 0 {
		return []Chunk{}, nil
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, &ReadError{Path: s.path, Err: fmt.Errorf("malformed chunk file: %w", err)}
	}
	if chunks == nil {
		chunks = []Chunk{}
	}
	return chunks, nil
}

// ReplaceAll atomically replaces the durable collection with the given
// snapshot. Snapshots containing duplicate ids are rejected with ErrConflict
// before anything touches disk.
func (s *FileStore) ReplaceAll(chunks []Chunk) error {
	if err := validateIDs(chunks); err != nil {
		return err
	}
	if chunks == nil {
		chunks = []Chunk{}
	}

	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target's directory,
// syncs it, and renames it over the target.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmp, err := os.CreateTemp(dir, ".outreach-chunks-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
