package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/vaultsort/internal/apperr"
)

// staged is a file that exists only in the overlay. It either carries its own
// content or points back at the base file it was moved from.
type staged struct {
	source  string
	content []byte
	written bool
}

// Overlay is a dry-run Provider: reads fall through to the base provider,
// while writes and moves are recorded in memory and never touch the disk.
// Later operations in the same pass observe earlier staged changes.
type Overlay struct {
	base    Provider
	files   map[string]staged
	removed map[string]struct{}
}

// NewOverlay wraps base in an in-memory change layer.
func NewOverlay(base Provider) *Overlay {
	return &Overlay{
		base:    base,
		files:   make(map[string]staged),
		removed: make(map[string]struct{}),
	}
}

// Root returns the base provider's root.
func (o *Overlay) Root() string { return o.base.Root() }

func (o *Overlay) key(path string) string {
	return filepath.Clean(path)
}

// Exists reports whether path exists after staged changes.
func (o *Overlay) Exists(path string) bool {
	k := o.key(path)
	if _, ok := o.files[k]; ok {
		return true
	}
	if _, ok := o.removed[k]; ok {
		return false
	}
	return o.base.Exists(k)
}

// Open streams the staged or base content of path.
func (o *Overlay) Open(path string) (io.ReadCloser, error) {
	k := o.key(path)
	if s, ok := o.files[k]; ok {
		if s.written {
			return io.NopCloser(bytes.NewReader(s.content)), nil
		}
		return o.base.Open(s.source)
	}
	if _, ok := o.removed[k]; ok {
		return nil, fmt.Errorf("storage: open %s: %w", path, os.ErrNotExist)
	}
	return o.base.Open(k)
}

// Read returns the staged or base content of path.
func (o *Overlay) Read(path string) ([]byte, error) {
	rc, err := o.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write stages content at path.
func (o *Overlay) Write(path string, content []byte) error {
	k := o.key(path)
	buf := make([]byte, len(content))
	copy(buf, content)
	o.files[k] = staged{content: buf, written: true}
	delete(o.removed, k)
	return nil
}

// Move stages a rename with the same preconditions as FS.Move.
func (o *Overlay) Move(oldPath, newPath string) error {
	from, to := o.key(oldPath), o.key(newPath)
	if !o.Exists(from) {
		return fmt.Errorf("storage: move %s: %w", oldPath, os.ErrNotExist)
	}
	if o.Exists(to) {
		return fmt.Errorf("storage: move %s -> %s: %w", oldPath, newPath, apperr.ErrAlreadyExists)
	}
	s, ok := o.files[from]
	if !ok {
		s = staged{source: from}
	}
	delete(o.files, from)
	o.removed[from] = struct{}{}
	o.files[to] = s
	delete(o.removed, to)
	return nil
}

// ReadDir merges the base listing with staged changes.
func (o *Overlay) ReadDir(dir string) ([]Entry, error) {
	d := o.key(dir)
	byName := make(map[string]Entry)

	base, err := o.base.ReadDir(d)
	if err != nil && !o.hasStagedUnder(d) {
		return nil, err
	}
	for _, e := range base {
		if _, gone := o.removed[filepath.Join(d, e.Name)]; gone && !e.IsDir {
			continue
		}
		byName[e.Name] = e
	}

	for p := range o.files {
		parent := filepath.Dir(p)
		if parent == d {
			byName[filepath.Base(p)] = Entry{Name: filepath.Base(p)}
			continue
		}
		// Staged files deeper down make their ancestors visible as directories.
		for cur := parent; cur != "." && cur != string(filepath.Separator); cur = filepath.Dir(cur) {
			if filepath.Dir(cur) == d {
				byName[filepath.Base(cur)] = Entry{Name: filepath.Base(cur), IsDir: true}
				break
			}
		}
	}

	out := make([]Entry, 0, len(byName))
	for _, e := range byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (o *Overlay) hasStagedUnder(dir string) bool {
	for p := range o.files {
		for cur := filepath.Dir(p); ; cur = filepath.Dir(cur) {
			if cur == dir {
				return true
			}
			if cur == "." || cur == string(filepath.Separator) {
				break
			}
		}
	}
	return false
}

// RealPath resolves through the base provider; directories that exist only
// in the overlay resolve to themselves.
func (o *Overlay) RealPath(dir string) (string, error) {
	return o.base.RealPath(o.key(dir))
}
