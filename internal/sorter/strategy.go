package sorter

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/vaultsort/internal/locator"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/parser"
	"github.com/starford/vaultsort/internal/resolver"
	"github.com/starford/vaultsort/internal/storage"
)

// ResourceDirName is the per-directory folder resources are gathered in.
const ResourceDirName = "_resources"

// Mode names, as accepted in configuration.
const (
	ModeYear     = "sort-by-year"
	ModeOptimize = "sort-resources"
)

// NotePlan is a strategy's verdict on a note.
type NotePlan struct {
	// Skip, when set, ends processing with that event.
	Skip models.EventKind
	// Target is the note's destination; empty keeps it in place.
	Target string
}

// Strategy is the policy half of a pass. The sorter owns the shared
// locate/resolve/apply core; a strategy only answers where things go.
type Strategy interface {
	Name() string
	// Notes lists the notes to process.
	Notes(store storage.Provider) ([]string, error)
	// PlanNote decides whether and where the note moves.
	PlanNote(note *models.Note) NotePlan
	// Scope returns the lookup scope for the note's resources; false means
	// resources are left alone. The scope's Accept limits which files the
	// strategy manages.
	Scope(note *models.Note) (locator.Scope, bool)
	// ResourceDir returns the destination directory for a located resource.
	ResourceDir(note *models.Note, res locator.Resolution) string
	// Relink returns the link edit that follows a decision, if any.
	Relink(ref models.Reference, d resolver.Decision) (parser.Edit, bool)
}

// yearSort moves dated notes into <year>/ and their resources into
// <year>/_resources/.
type yearSort struct {
	resources string
}

// YearSort returns the year-sort strategy. resourcesDir is vault-relative;
// empty disables resource handling.
func YearSort(resourcesDir string) Strategy {
	return &yearSort{resources: resourcesDir}
}

func (y *yearSort) Name() string { return ModeYear }

func (y *yearSort) Notes(store storage.Provider) ([]string, error) {
	return storage.ListNotes(store, ".", false)
}

func (y *yearSort) PlanNote(note *models.Note) NotePlan {
	if !note.Dated() {
		return NotePlan{Skip: models.EventSkipNoDate}
	}
	return NotePlan{Target: filepath.Join(strconv.Itoa(note.Year), filepath.Base(note.Path))}
}

func (y *yearSort) Scope(note *models.Note) (locator.Scope, bool) {
	if y.resources == "" {
		return locator.Scope{}, false
	}
	return locator.Scope{
		NoteDir:    filepath.Dir(note.Path),
		BaseDir:    y.resources,
		SearchRoot: y.resources,
		Accept:     func(p string) bool { return locator.Within(p, y.resources) },
	}, true
}

func (y *yearSort) ResourceDir(note *models.Note, _ locator.Resolution) string {
	return filepath.Join(strconv.Itoa(note.Year), ResourceDirName)
}

func (y *yearSort) Relink(ref models.Reference, d resolver.Decision) (parser.Edit, bool) {
	if !d.Renamed() {
		return parser.Edit{}, false
	}
	return parser.Rename(ref, d.Name), true
}

// optimize leaves notes in place and gathers each resource into the
// _resources folder of the deepest directory shared by note and resource.
type optimize struct {
	searchRoot string
}

// Optimize returns the resource-optimization strategy.
func Optimize(searchRoot string) Strategy {
	if searchRoot == "" {
		searchRoot = "."
	}
	return &optimize{searchRoot: searchRoot}
}

func (o *optimize) Name() string { return ModeOptimize }

func (o *optimize) Notes(store storage.Provider) ([]string, error) {
	return storage.ListNotes(store, ".", true)
}

func (o *optimize) PlanNote(*models.Note) NotePlan { return NotePlan{} }

func (o *optimize) Scope(note *models.Note) (locator.Scope, bool) {
	return locator.Scope{
		NoteDir:    filepath.Dir(note.Path),
		BaseDir:    o.searchRoot,
		SearchRoot: o.searchRoot,
	}, true
}

func (o *optimize) ResourceDir(note *models.Note, res locator.Resolution) string {
	return filepath.Join(commonDir(filepath.Dir(note.Path), filepath.Dir(res.Path)), ResourceDirName)
}

func (o *optimize) Relink(ref models.Reference, d resolver.Decision) (parser.Edit, bool) {
	e := parser.Canonicalize(ref, d.Name)
	return e, e.Target != ref.Target
}

// commonDir returns the deepest directory that is an ancestor of both a and
// b (vault-relative; "." is the root).
func commonDir(a, b string) string {
	pa, pb := splitDir(a), splitDir(b)
	n := 0
	for n < len(pa) && n < len(pb) && pa[n] == pb[n] {
		n++
	}
	if n == 0 {
		return "."
	}
	return filepath.Join(pa[:n]...)
}

func splitDir(d string) []string {
	d = filepath.Clean(d)
	if d == "." {
		return nil
	}
	return strings.Split(d, string(filepath.Separator))
}
