package chunk

import "errors"

// DefaultCategory is assigned when a chunk is created without a category.
const DefaultCategory = "Default"

// AllCategories is the filter sentinel matching every category.
const AllCategories = "All"

// ErrNotFound is returned when a referenced chunk id does not exist.
var ErrNotFound = errors.New("chunk not found")

// ErrConflict is returned when a snapshot contains duplicate chunk ids.
var ErrConflict = errors.New("duplicate chunk id")

// Chunk is a reusable text fragment appended to composed messages.
// Order within the collection is user-controlled and significant; the
// category is used only for filtering, never for ordering.
type Chunk struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// ReadError wraps a failure to load the chunk collection. Callers use it to
// distinguish a broken backing file from a genuinely empty collection.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return "reading chunks from " + e.Path + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failure to persist the chunk collection.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return "writing chunks to " + e.Path + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// validateIDs checks id uniqueness across a snapshot.
func validateIDs(chunks []Chunk) error {
	seen := make(map[int64]struct{}, len(chunks))
	for _, c := range chunks {
		if _, dup := seen[c.ID]; dup {
			return ErrConflict
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
