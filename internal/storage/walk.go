package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// WalkFunc is called with the vault-relative path of every regular file.
// Returning fs.SkipAll ends the walk without error.
type WalkFunc func(rel string) error

// Walk visits every file under dir breadth-first. It uses an explicit queue
// and a visited set keyed on the real directory path, so symbolic-link cycles
// are entered at most once. Hidden directories are not descended into, and
// unreadable subdirectories are skipped.
func Walk(p Provider, dir string, fn WalkFunc) error {
	start := filepath.Clean(dir)
	queue := []string{start}
	visited := make(map[string]struct{})

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		real, err := p.RealPath(cur)
		if err != nil {
			if cur == start {
				return err
			}
			continue
		}
		if _, seen := visited[real]; seen {
			continue
		}
		visited[real] = struct{}{}

		entries, err := p.ReadDir(cur)
		if err != nil {
			if cur == start {
				return err
			}
			continue
		}
		for _, e := range entries {
			rel := filepath.Join(cur, e.Name)
			if e.IsDir {
				if !isHidden(e.Name) {
					queue = append(queue, rel)
				}
				continue
			}
			if err := fn(rel); err != nil {
				if errors.Is(err, fs.SkipAll) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// ListNotes returns the Markdown files in dir, sorted lexicographically.
// With recursive unset only dir itself is listed.
func ListNotes(p Provider, dir string, recursive bool) ([]string, error) {
	var out []string
	if recursive {
		err := Walk(p, dir, func(rel string) error {
			if isNote(filepath.Base(rel)) {
				out = append(out, rel)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("storage: list notes: %w", err)
		}
	} else {
		entries, err := p.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("storage: list notes: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir && isNote(e.Name) {
				out = append(out, filepath.Join(dir, e.Name))
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func isNote(name string) bool {
	return !isHidden(name) && strings.EqualFold(filepath.Ext(name), ".md")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
