package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *UploadStore {
	t.Helper()
	store, err := NewUploadStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestPathIsDeterministic(t *testing.T) {
	store := newTestStore(t)

	want := filepath.Join(store.Root, "42_pdd.csv")
	if got := store.Path(42, "pdd.csv"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
	// Verzeichnisanteile im Dateinamen werden abgeschnitten.
	if got := store.Path(42, "../../etc/pdd.csv"); got != want {
		t.Fatalf("Path with traversal = %q, want %q", got, want)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save(1, "data.csv", []byte("first"))
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, err := store.Save(1, "data.csv", []byte("second")); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}
}

func TestModTime(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save(1, "a.csv", []byte("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	modTime, err := store.ModTime(path)
	if err != nil {
		t.Fatalf("ModTime: %v", err)
	}
	if time.Since(modTime) > time.Minute {
		t.Fatalf("implausible mod time %v", modTime)
	}

	if _, err := store.ModTime(filepath.Join(store.Root, "1_missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRemoveMissingIsNoError(t *testing.T) {
	store := newTestStore(t)

	if err := store.Remove(filepath.Join(store.Root, "1_missing.csv")); err != nil {
		t.Fatalf("Remove of missing file: %v", err)
	}
}

func TestListIgnoresDirectories(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(1, "a.csv", []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.Mkdir(filepath.Join(store.Root, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "1_a.csv" {
		t.Fatalf("unexpected listing: %v", files)
	}
}
