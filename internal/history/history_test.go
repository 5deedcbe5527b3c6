package history

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(kind string, at time.Time) Record {
	return Record{
		ID:        uuid.New().String(),
		CreatedAt: at,
		Kind:      kind,
		Input:     "Data Analyst",
		Output:    "Our students are well-equipped...",
		Model:     "llama3",
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)

	r := testRecord("boilerplate", time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	r.Fallback = true
	if err := s.Save(r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != "boilerplate" || got.Input != r.Input || got.Output != r.Output {
		t.Errorf("got %+v", got)
	}
	if !got.Fallback {
		t.Error("fallback flag lost")
	}
	if !got.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, r.CreatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListRecent_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	old := testRecord("rewrite", base)
	mid := testRecord("rewrite", base.Add(time.Minute))
	newest := testRecord("boilerplate", base.Add(2*time.Minute))
	for _, r := range []Record{old, newest, mid} {
		if err := s.Save(r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.ListRecent(10, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0].ID != newest.ID || got[2].ID != old.ID {
		t.Errorf("order = [%s %s %s]", got[0].Kind, got[1].Kind, got[2].Kind)
	}

	limited, err := s.ListRecent(1, 1)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != mid.ID {
		t.Errorf("limit/offset wrong: %+v", limited)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	r := testRecord("rewrite", time.Now())
	if err := s.Save(r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s.Save(testRecord("rewrite", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	// Reopen over the same file; migrations must not re-run or destroy data.
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	got, err := s2.ListRecent(10, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(got))
	}
}
