// Package notes stores dictated notes. Each note is named after the moment
// it was taken (note_YYYYMMDD_HHMMSS.txt) so name order is creation order.
package notes

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
)

const (
	DefaultDir = "assistant_notes"

	namePrefix = "note_"
	nameSuffix = ".txt"
	stampFmt   = "20060102_150405"
)

var ErrNotFound = errors.New("note not found")

// Name returns the note name for a note taken at at. A non-zero seq
// disambiguates notes taken within the same second and still sorts after
// the first one.
func Name(at time.Time, seq int) string {
	stamp := at.Format(stampFmt)
	if seq > 0 {
		return fmt.Sprintf("%s%s_%d%s", namePrefix, stamp, seq, nameSuffix)
	}
	return namePrefix + stamp + nameSuffix
}

func isNoteName(name string) bool {
	return strings.HasPrefix(name, namePrefix) && strings.HasSuffix(name, nameSuffix)
}

// FileStore keeps one text file per note in a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates dir on fs when missing.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if fs == nil {
		return nil, errors.New("missing parameter: fs")
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) Write(at time.Time, text string) (string, error) {
	for seq := 0; ; seq++ {
		name := Name(at, seq)
		f, err := s.fs.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create note: %w", err)
		}

		if _, err := io.WriteString(f, text); err != nil {
			f.Close()
			return "", fmt.Errorf("write note: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close note: %w", err)
		}
		return name, nil
	}
}

// List returns note names in ascending order.
func (s *FileStore) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	var names []string
	for _, fi := range infos {
		if fi.IsDir() || !isNoteName(fi.Name()) {
			continue
		}
		names = append(names, fi.Name())
	}
	return names, nil
}

// Read returns at most maxChars characters of the note.
func (s *FileStore) Read(name string, maxChars int) (string, error) {
	if filepath.Base(name) != name || !isNoteName(name) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	f, err := s.fs.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("open note: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, int64(maxChars)*utf8.UTFMax))
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	return truncate(string(b), maxChars), nil
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == maxChars {
			return s[:pos]
		}
		i++
	}
	return s
}
