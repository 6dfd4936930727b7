package deck

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// Extension is the file suffix of deck sources.
const Extension = ".csv"

// Store loads decks from a file system by name and caches them, so a deck is
// read at most once per process and every game sees identical card order.
type Store struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]*Deck
}

// NewStore returns a store reading <name>.csv files from fsys.
func NewStore(fsys fs.FS) *Store {
	return &Store{fsys: fsys, cache: make(map[string]*Deck)}
}

// NewDirStore returns a store rooted at a directory on disk.
func NewDirStore(dir string) *Store {
	return NewStore(os.DirFS(dir))
}

// Load returns the named deck, parsing it on first use.
func (s *Store) Load(name string) (*Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.cache[name]; ok {
		return d, nil
	}

	file, err := sourcePath(name)
	if err != nil {
		return nil, &LoadError{Deck: name, Err: err}
	}

	f, err := s.fsys.Open(file)
	if err != nil {
		return nil, &LoadError{Deck: name, Path: file, Err: err}
	}
	defer f.Close()

	d, err := Parse(name, f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = file
		}
		return nil, err
	}

	s.cache[name] = d
	return d, nil
}

// Available lists deck names present in the store, sorted.
func (s *Store) Available() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Extension))
	}
	sort.Strings(names)
	return names, nil
}

func sourcePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != path.Clean(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	file := name + Extension
	if !fs.ValidPath(file) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return file, nil
}
