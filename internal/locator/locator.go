// Package locator finds the file a resource reference points at.
package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/storage"
)

// Scope bounds a single lookup. All paths are vault-relative.
type Scope struct {
	// NoteDir is the directory of the referencing note.
	NoteDir string
	// BaseDir is tried for direct hits after NoteDir: the resources directory
	// in year-sort mode, the search root otherwise.
	BaseDir string
	// SearchRoot is walked when no direct candidate exists.
	SearchRoot string
	// Accept, when set, limits which files may satisfy the lookup. Rejected
	// files are skipped in favour of the next candidate.
	Accept func(path string) bool
}

func (s Scope) accepts(path string) bool {
	return s.Accept == nil || s.Accept(path)
}

// Resolution binds a reference to zero or one file.
type Resolution struct {
	Ref  models.Reference
	Path string
	// Candidates lists every tree-search match, best first. It is empty when
	// a direct candidate matched.
	Candidates []string
	// Rejected lists files with a matching name that the scope refused.
	Rejected []string
}

// Found reports whether a file was located.
func (r Resolution) Found() bool { return r.Path != "" }

// Ambiguous reports whether the tree search found more than one file.
func (r Resolution) Ambiguous() bool { return len(r.Candidates) > 1 }

// Locator resolves references against a storage provider.
type Locator struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a Locator.
func New(store storage.Provider, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{store: store, logger: logger}
}

// Locate resolves ref within scope. A reference that cannot be found is not
// an error; the returned Resolution simply has no Path.
func (l *Locator) Locate(ref models.Reference, scope Scope) (Resolution, error) {
	res := Resolution{Ref: ref}

	for _, c := range directCandidates(ref, scope) {
		if !l.store.Exists(c) {
			continue
		}
		if !scope.accepts(c) {
			res.Rejected = append(res.Rejected, c)
			continue
		}
		res.Path = c
		return res, nil
	}

	matches, err := l.search(ref.Name, scope.SearchRoot)
	if err != nil {
		return res, fmt.Errorf("locator: search %s: %w", ref.Name, err)
	}
	for _, m := range matches {
		if scope.accepts(m) {
			res.Candidates = append(res.Candidates, m)
		} else if !slices.Contains(res.Rejected, m) {
			res.Rejected = append(res.Rejected, m)
		}
	}
	if len(res.Candidates) == 0 {
		return res, nil
	}
	res.Path = res.Candidates[0]
	if len(res.Candidates) > 1 {
		l.logger.Debug("locator: multiple candidates",
			slog.String("name", ref.Name),
			slog.String("chosen", res.Path),
			slog.Int("count", len(res.Candidates)))
	}
	return res, nil
}

func directCandidates(ref models.Reference, scope Scope) []string {
	target := filepath.FromSlash(ref.Target)
	name := filepath.FromSlash(ref.Name)

	var raw []string
	if ref.HasPath() {
		raw = []string{
			filepath.Join(scope.NoteDir, target),
			filepath.Join(scope.BaseDir, target),
			filepath.Join(scope.BaseDir, name),
		}
	} else {
		raw = []string{
			filepath.Join(scope.NoteDir, name),
			filepath.Join(scope.BaseDir, name),
		}
	}

	seen := make(map[string]struct{}, len(raw))
	out := raw[:0]
	for _, c := range raw {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// search walks root for files named exactly name and orders the matches by
// depth, then lexicographically.
func (l *Locator) search(name, root string) ([]string, error) {
	want := norm.NFC.String(name)
	var matches []string
	err := storage.Walk(l.store, root, func(rel string) error {
		if norm.NFC.String(filepath.Base(rel)) == want {
			matches = append(matches, rel)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		di, dj := depth(matches[i]), depth(matches[j])
		if di != dj {
			return di < dj
		}
		return matches[i] < matches[j]
	})
	return matches, nil
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(filepath.Separator))
}

// Within reports whether path lies inside dir. Both are vault-relative.
func Within(path, dir string) bool {
	dir = filepath.Clean(dir)
	if dir == "." {
		return true
	}
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
