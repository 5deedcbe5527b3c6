// Package session holds the per-user editing state behind the composer UI:
// the current form snapshot, the selected internship periods, the active
// chunk filter, and the composed message itself. All mutations funnel
// through one object so the composer never reads ambient globals.
package session

import (
	"slices"
	"sync"

	"github.com/kalambet/outreach/internal/chunk"
	"github.com/kalambet/outreach/internal/compose"
	"github.com/kalambet/outreach/internal/render"
)

// Actions that take an outstanding network call and must not be submitted
// twice concurrently.
const (
	ActionRewrite     = "rewrite"
	ActionBoilerplate = "boilerplate"
)

// Session is the state object owned by a single editing surface. Every
// setter recomposes the message, so Message always reflects the current
// inputs; the one exception is ReplaceMessage, whose text survives only
// until the next input change.
type Session struct {
	repo     *chunk.Repository
	composer *compose.Composer

	mu       sync.Mutex
	form     compose.FormSnapshot
	search   string
	category string
	message  string
	busy     map[string]bool
}

func New(repo *chunk.Repository, composer *compose.Composer) *Session {
	s := &Session{
		repo:     repo,
		composer: composer,
		category: chunk.AllCategories,
		busy:     make(map[string]bool),
	}
	s.mu.Lock()
	s.recomposeLocked()
	s.mu.Unlock()
	return s
}

// SetForm replaces the whole form snapshot, including the period selection.
func (s *Session) SetForm(form compose.FormSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	s.recomposeLocked()
}

// TogglePeriod adds the period to the selection, or removes it if already
// selected. Selection order is the order periods were toggled on.
func (s *Session) TogglePeriod(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.form.Periods, label); i >= 0 {
		s.form.Periods = slices.Delete(s.form.Periods, i, i+1)
	} else {
		s.form.Periods = append(s.form.Periods, label)
	}
	s.recomposeLocked()
}

// SetSearch updates the text filter. The filter governs both the visible
// chunk list and which chunks are appended to the composed message.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = q
	s.recomposeLocked()
}

// SetCategory updates the category filter. Empty means all categories.
func (s *Session) SetCategory(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == "" {
		c = chunk.AllCategories
	}
	s.category = c
	s.recomposeLocked()
}

// Filter returns the active search and category selection.
func (s *Session) Filter() (search, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search, s.category
}

// Chunks returns the chunks visible under the active filter, in
// collection order.
func (s *Session) Chunks() []chunk.Chunk {
	s.mu.Lock()
	search, category := s.search, s.category
	s.mu.Unlock()

	var out []chunk.Chunk
	for c := range s.repo.Query(search, category) {
		out = append(out, c)
	}
	return out
}

// Refresh recomposes from the current repository contents. Call after the
// chunk collection changes out from under the session (a mutation or a
// file-watcher reload).
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomposeLocked()
}

// Message returns the composed plain text.
func (s *Session) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// HTML returns the sanitized markup for the composed message.
func (s *Session) HTML() string {
	return render.Render(s.Message())
}

// Markdown returns the composed message with bare URLs in link form.
func (s *Session) Markdown() string {
	return render.Markdown(s.Message())
}

// Clipboard returns both clipboard representations of the composed message.
func (s *Session) Clipboard() render.ClipboardPayload {
	return render.Clipboard(s.Message())
}

// ReplaceMessage swaps in externally produced text, such as a rewrite
// result. The replacement is wholesale and transient: any subsequent form,
// period, or filter change recomposes and discards it.
func (s *Session) ReplaceMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = text
}

// TryBegin marks an action as in flight. It returns false if the same
// action already has an outstanding call, in which case the caller must
// not submit another. Unrelated actions are not blocked.
func (s *Session) TryBegin(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[action] {
		return false
	}
	s.busy[action] = true
	return true
}

// Finish clears the in-flight mark set by TryBegin.
func (s *Session) Finish(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, action)
}

func (s *Session) recomposeLocked() {
	var chunks []chunk.Chunk
	for c := range s.repo.Query(s.search, s.category) {
		chunks = append(chunks, c)
	}
	s.message = s.composer.Compose(s.form, chunks)
}
