package chunk

import (
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository holds the in-memory authoritative cache of the chunk collection
// for a running session. Every mutation follows the same protocol: build the
// new snapshot, persist it via the Store, then reload the cache from durable
// state. The cache is never updated optimistically, so a failed write leaves
// it exactly as it was before the attempt.
type Repository struct {
	store Store

	mu     sync.Mutex
	cache  []Chunk
	lastID int64

	now func() time.Time
}

// NewRepository creates a Repository over the given store. The cache starts
// empty; call Refresh to populate it.
func NewRepository(store Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Refresh replaces the cache with the store's current contents. On failure
// the cache becomes empty so the caller stays usable, and the error is
// returned for reporting.
func (r *Repository) Refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked()
}

func (r *Repository) refreshLocked() error {
	chunks, err := r.store.Load()
	if err != nil {
		r.cache = []Chunk{}
		slog.Warn("chunk refresh failed, cache emptied", "error", err)
		return err
	}
	r.cache = chunks
	return nil
}

// Add creates a chunk with a fresh unique id at the end of the collection.
// Empty text is rejected. The category defaults to DefaultCategory.
func (r *Repository) Add(text, category string) (Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk text must not be empty")
	}
	if category == "" {
		category = DefaultCategory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := Chunk{ID: r.nextIDLocked(), Text: text, Category: category}
	next := make([]Chunk, len(r.cache), len(r.cache)+1)
	copy(next, r.cache)
	next = append(next, c)

	if err := r.persistLocked(next, "add"); err != nil {
		return Chunk{}, err
	}
	return c, nil
}

// Update mutates a chunk's text and/or category in place, preserving its id
// and position. Nil arguments leave the corresponding field untouched.
// Returns ErrNotFound if the id is absent.
func (r *Repository) Update(id int64, text, category *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]Chunk, len(r.cache))
	copy(next, r.cache)

	idx := -1
	for i := range next {
		if next[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		slog.Warn("update of missing chunk ignored", "id", id)
		return ErrNotFound
	}

	if text != nil {
		trimmed := strings.TrimSpace(*text)
		if trimmed == "" {
			return fmt.Errorf("chunk text must not be empty")
		}
		next[idx].Text = trimmed
	}
	if category != nil && *category != "" {
		next[idx].Category = *category
	}

	return r.persistLocked(next, "update")
}

// Remove deletes a chunk by id. Returns ErrNotFound if the id is absent.
func (r *Repository) Remove(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]Chunk, 0, len(r.cache))
	found := false
	for _, c := range r.cache {
		if c.ID == id {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		slog.Warn("removal of missing chunk ignored", "id", id)
		return ErrNotFound
	}

	return r.persistLocked(next, "remove")
}

// Reorder permutes the chunks named in idOrder into that relative order,
// within the slots those chunks already occupy. Chunks absent from idOrder
// keep their positions, so reordering a filtered view never drops what the
// view doesn't show. Unknown ids are ignored and logged.
func (r *Repository) Reorder(idOrder []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[int64]int, len(r.cache))
	for i, c := range r.cache {
		byID[c.ID] = i
	}

	// Slots occupied by the named chunks, in cache order.
	var slots []int
	var ordered []int64
	seen := make(map[int64]struct{}, len(idOrder))
	for _, id := range idOrder {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		idx, ok := byID[id]
		if !ok {
			slog.Warn("reorder references unknown chunk id", "id", id)
			continue
		}
		slots = append(slots, idx)
		ordered = append(ordered, id)
	}
	sort.Ints(slots)

	next := make([]Chunk, len(r.cache))
	copy(next, r.cache)
	for i, id := range ordered {
		next[slots[i]] = r.cache[byID[id]]
	}

	return r.persistLocked(next, "reorder")
}

// ReplaceAll persists a wholesale replacement of the collection. The last
// full replace wins; there is no conflict detection between writers.
func (r *Repository) ReplaceAll(chunks []Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(chunks, "replace")
}

// Query returns a lazy, restartable sequence of chunks whose text contains
// search case-insensitively (empty search matches all) and whose category
// matches the selector (AllCategories matches every chunk). Results follow
// the current cache order.
func (r *Repository) Query(search, category string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		r.mu.Lock()
		snapshot := make([]Chunk, len(r.cache))
		copy(snapshot, r.cache)
		r.mu.Unlock()

		needle := strings.ToLower(search)
		for _, c := range snapshot {
			if needle != "" && !strings.Contains(strings.ToLower(c.Text), needle) {
				continue
			}
			if category != AllCategories && !strings.EqualFold(category, c.Category) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// All returns a copy of the full collection in current order.
func (r *Repository) All() []Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Chunk, len(r.cache))
	copy(out, r.cache)
	return out
}

// Get returns the chunk with the given id, or ErrNotFound.
func (r *Repository) Get(id int64) (Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cache {
		if c.ID == id {
			return c, nil
		}
	}
	return Chunk{}, ErrNotFound
}

func (r *Repository) persistLocked(next []Chunk, op string) error {
	if err := r.store.ReplaceAll(next); err != nil {
		slog.Warn("chunk persistence failed, cache unchanged", "op", op, "error", err)
		return err
	}
	if err := r.refreshLocked(); err != nil {
		return fmt.Errorf("reloading after %s: %w", op, err)
	}
	return nil
}

// nextIDLocked allocates a fresh unique id. Ids are creation timestamps in
// unix milliseconds; collisions within the same millisecond bump forward.
func (r *Repository) nextIDLocked() int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	for r.containsIDLocked(id) {
		id++
	}
	r.lastID = id
	return id
}

func (r *Repository) containsIDLocked(id int64) bool {
	for _, c := range r.cache {
		if c.ID == id {
			return true
		}
	}
	return false
}
