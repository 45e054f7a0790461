package notes

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

type store interface {
	Write(at time.Time, text string) (string, error)
	List() ([]string, error)
	Read(name string, maxChars int) (string, error)
}

func newFileStore(t *testing.T) store {
	t.Helper()
	s, err := NewFileStore(afero.NewMemMapFs(), DefaultDir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func newSQLiteStore(t *testing.T) store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var backends = map[string]func(*testing.T) store{
	"file":   newFileStore,
	"sqlite": newSQLiteStore,
}

func TestStores(t *testing.T) {
	at := time.Date(2024, time.January, 1, 0, 5, 0, 0, time.Local)

	for backend, open := range backends {
		t.Run(backend+"/empty list", func(t *testing.T) {
			s := open(t)
			names, err := s.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(names) != 0 {
				t.Errorf("got %v, want no notes", names)
			}
		})

		t.Run(backend+"/write and read", func(t *testing.T) {
			s := open(t)

			name, err := s.Write(at, "buy milk")
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if name != "note_20240101_000500.txt" {
				t.Errorf("name = %q", name)
			}

			got, err := s.Read(name, 800)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got != "buy milk" {
				t.Errorf("Read = %q, want %q", got, "buy milk")
			}
		})

		t.Run(backend+"/same second does not overwrite", func(t *testing.T) {
			s := open(t)

			first, _ := s.Write(at, "one")
			second, err := s.Write(at, "two")
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if first == second {
				t.Fatalf("both notes named %q", first)
			}

			names, _ := s.List()
			if !slices.Equal(names, []string{first, second}) {
				t.Errorf("List = %v, want [%s %s]", names, first, second)
			}
			if got, _ := s.Read(first, 800); got != "one" {
				t.Errorf("first note = %q", got)
			}
		})

		t.Run(backend+"/list is time ordered", func(t *testing.T) {
			s := open(t)

			later, _ := s.Write(at.Add(time.Hour), "later")
			earlier, _ := s.Write(at, "earlier")

			names, _ := s.List()
			if !slices.Equal(names, []string{earlier, later}) {
				t.Errorf("List = %v", names)
			}
		})

		t.Run(backend+"/read truncates by characters", func(t *testing.T) {
			s := open(t)

			name, _ := s.Write(at, strings.Repeat("é", 10))
			got, err := s.Read(name, 4)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got != "éééé" {
				t.Errorf("Read = %q", got)
			}
		})

		t.Run(backend+"/missing note", func(t *testing.T) {
			s := open(t)

			_, err := s.Read("note_19990101_000000.txt", 10)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "notes")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	afero.WriteFile(fs, "notes/todo.md", []byte("x"), 0o644)
	fs.MkdirAll("notes/note_dir.txt", 0o755)
	name, _ := s.Write(time.Now(), "real")

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !slices.Equal(names, []string{name}) {
		t.Errorf("List = %v, want [%s]", names, name)
	}

	if _, err := s.Read("../todo.md", 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for path outside the store, got %v", err)
	}
}

func TestName(t *testing.T) {
	at := time.Date(2024, time.March, 9, 7, 8, 9, 0, time.UTC)

	if got := Name(at, 0); got != "note_20240309_070809.txt" {
		t.Errorf("Name(at, 0) = %q", got)
	}
	if got := Name(at, 2); got != "note_20240309_070809_2.txt" {
		t.Errorf("Name(at, 2) = %q", got)
	}
	if !(Name(at, 0) < Name(at, 1)) {
		t.Error("suffixed name should sort after the plain one")
	}
}
