package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dartcov/dartcov/internal/domain"
)

func TestFileStoreLoad(t *testing.T) {
	t.Run("returns empty history for non-existent file", func(t *testing.T) {
		store := FileStore{Path: filepath.Join(t.TempDir(), "missing.json")}
		h, err := store.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(h.Entries) != 0 {
			t.Fatalf("expected empty history, got %d entries", len(h.Entries))
		}
	})

	t.Run("loads existing history", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		content := `{"entries":[{"timestamp":"2024-01-15T10:00:00Z","commit":"abc123","percent":75.5,"covered":151,"total":200}]}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write test file: %v", err)
		}

		store := FileStore{Path: path}
		h, err := store.Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(h.Entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(h.Entries))
		}
		if h.Entries[0].Percent != 75.5 {
			t.Fatalf("expected 75.5, got %f", h.Entries[0].Percent)
		}
		if h.Entries[0].Commit != "abc123" {
			t.Fatalf("expected commit abc123, got %q", h.Entries[0].Commit)
		}
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.json")
		if err := os.WriteFile(path, []byte("not valid json"), 0644); err != nil {
			t.Fatalf("write test file: %v", err)
		}

		store := FileStore{Path: path}
		_, err := store.Load()
		if err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})
}

func TestFileStoreSave(t *testing.T) {
	t.Run("saves history to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		store := FileStore{Path: path}

		h := domain.History{
			Entries: []domain.HistoryEntry{
				{
					Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
					Branch:    "main",
					Percent:   80.0,
					Covered:   80,
					Total:     100,
				},
			},
		}

		if err := store.Save(h); err != nil {
			t.Fatalf("save: %v", err)
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if len(loaded.Entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(loaded.Entries))
		}
		if loaded.Entries[0].Percent != 80.0 {
			t.Fatalf("expected 80.0, got %f", loaded.Entries[0].Percent)
		}
		if loaded.Entries[0].Branch != "main" {
			t.Fatalf("expected branch main, got %q", loaded.Entries[0].Branch)
		}
	})

	t.Run("creates directory if missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "dir")
		path := filepath.Join(dir, "history.json")
		store := FileStore{Path: path}

		h := domain.History{
			Entries: []domain.HistoryEntry{{Percent: 70.0}},
		}

		if err := store.Save(h); err != nil {
			t.Fatalf("save: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected file: %v", err)
		}
	})
}

func TestFileStoreAppend(t *testing.T) {
	t.Run("appends entry to empty history", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		store := FileStore{Path: path}

		entry := domain.HistoryEntry{
			Timestamp: time.Now(),
			Percent:   75.0,
		}

		if err := store.Append(entry); err != nil {
			t.Fatalf("append: %v", err)
		}

		h, _ := store.Load()
		if len(h.Entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(h.Entries))
		}
	})

	t.Run("appends to existing history", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		store := FileStore{Path: path}

		store.Append(domain.HistoryEntry{Percent: 70.0})

		if err := store.Append(domain.HistoryEntry{Percent: 75.0}); err != nil {
			t.Fatalf("append: %v", err)
		}

		h, _ := store.Load()
		if len(h.Entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(h.Entries))
		}
	})

	t.Run("limits history size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		store := FileStore{Path: path, MaxEntries: 3}

		for i := 0; i < 5; i++ {
			store.Append(domain.HistoryEntry{Percent: float64(70 + i)})
		}

		h, _ := store.Load()
		if len(h.Entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(h.Entries))
		}
		// Keeps the latest entries
		if h.Entries[0].Percent != 72.0 {
			t.Fatalf("expected oldest entry 72.0, got %f", h.Entries[0].Percent)
		}
	})
}

func TestNewFileStoreDefaultPath(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	want := filepath.Join(root, "coverage", "history.json")
	if store.Path != want {
		t.Fatalf("expected %q, got %q", want, store.Path)
	}
}
