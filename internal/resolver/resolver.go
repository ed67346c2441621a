// Package resolver decides how a resource lands in its destination directory.
package resolver

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/vaultsort/internal/checksum"
	"github.com/starford/vaultsort/internal/storage"
)

// maxSuffix bounds the rename search.
const maxSuffix = 100000

// Action is the outcome of conflict resolution.
type Action string

const (
	ActionMove          Action = "move"
	ActionMoveRenamed   Action = "move-renamed"
	ActionSkipIdentical Action = "skip-identical"
)

// Decision says what to do with one resource. Dest and Name are final: for
// ActionMoveRenamed, Name never collides with an existing file in the
// destination directory.
type Decision struct {
	Action Action
	Source string
	Dest   string
	Name   string
}

// Renamed reports whether the resource ends up under a new name.
func (d Decision) Renamed() bool { return d.Action == ActionMoveRenamed }

// Resolver compares a resource with its would-be destination.
type Resolver struct {
	store storage.Provider
}

// New creates a Resolver.
func New(store storage.Provider) *Resolver {
	return &Resolver{store: store}
}

// Resolve decides how src lands in destDir under name.
func (r *Resolver) Resolve(src, destDir, name string) (Decision, error) {
	dest := filepath.Join(destDir, name)
	d := Decision{Action: ActionMove, Source: src, Dest: dest, Name: name}

	if !r.store.Exists(dest) {
		return d, nil
	}
	if filepath.Clean(src) == filepath.Clean(dest) {
		d.Action = ActionSkipIdentical
		return d, nil
	}

	same, err := checksum.Identical(r.store, src, dest)
	if err != nil {
		return Decision{}, fmt.Errorf("resolver: compare %s with %s: %w", src, dest, err)
	}
	if same {
		d.Action = ActionSkipIdentical
		return d, nil
	}

	unique, err := UniqueName(r.store.Exists, destDir, name)
	if err != nil {
		return Decision{}, err
	}
	d.Action = ActionMoveRenamed
	d.Name = unique
	d.Dest = filepath.Join(destDir, unique)
	return d, nil
}

// Apply performs the move a decision calls for. Skips are no-ops.
func (r *Resolver) Apply(d Decision) error {
	if d.Action == ActionSkipIdentical {
		return nil
	}
	if err := r.store.Move(d.Source, d.Dest); err != nil {
		return fmt.Errorf("resolver: apply %s: %w", d.Action, err)
	}
	return nil
}

// UniqueName returns the first of name_1.ext, name_2.ext, ... that does not
// exist in dir.
func UniqueName(exists func(string) bool, dir, name string) (string, error) {
	stem, ext := splitExt(name)
	for i := 1; i <= maxSuffix; i++ {
		candidate := stem + "_" + strconv.Itoa(i) + ext
		if !exists(filepath.Join(dir, candidate)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("resolver: no free name for %s in %s", name, dir)
}

func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	return stem, ext
}
