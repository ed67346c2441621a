// Package sorter drives a relocation pass over the notes of a vault.
package sorter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/vaultsort/internal/checksum"
	"github.com/starford/vaultsort/internal/locator"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/parser"
	"github.com/starford/vaultsort/internal/resolver"
	"github.com/starford/vaultsort/internal/storage"
)

// EventFunc receives every event of a pass, in order.
type EventFunc func(models.Event)

// Option configures a Sorter.
type Option func(*Sorter)

// WithExecute selects execute mode. The default is a dry run.
func WithExecute(execute bool) Option {
	return func(s *Sorter) { s.execute = execute }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sorter) { s.logger = logger }
}

// WithEventFunc registers the event sink.
func WithEventFunc(fn EventFunc) Option {
	return func(s *Sorter) { s.onEvent = fn }
}

// Sorter runs passes of one strategy over one vault.
type Sorter struct {
	base     storage.Provider
	strategy Strategy
	execute  bool
	logger   *slog.Logger
	onEvent  EventFunc
}

// New creates a Sorter over base.
func New(base storage.Provider, strategy Strategy, opts ...Option) *Sorter {
	s := &Sorter{base: base, strategy: strategy, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute reports whether the sorter writes to disk.
func (s *Sorter) Execute() bool { return s.execute }

// Strategy returns the configured strategy.
func (s *Sorter) Strategy() Strategy { return s.strategy }

// Run lists the strategy's notes and processes them.
func (s *Sorter) Run(ctx context.Context) (models.Summary, error) {
	notes, err := s.strategy.Notes(s.base)
	if err != nil {
		return models.Summary{}, fmt.Errorf("sorter: list notes: %w", err)
	}
	return s.RunNotes(ctx, notes)
}

// RunNotes processes notes in lexicographic order. A failing note is
// reported and skipped; the context is only consulted between notes.
func (s *Sorter) RunNotes(ctx context.Context, notes []string) (models.Summary, error) {
	p := s.newPass()
	for _, path := range sortedCopy(notes) {
		if err := ctx.Err(); err != nil {
			return p.summary, err
		}
		if err := p.processNote(path); err != nil {
			p.emit(models.Event{Kind: models.EventError, Note: path, Detail: err.Error(), Err: err})
			s.logger.Warn("sorter: note failed", slog.String("note", path), slog.String("error", err.Error()))
		}
	}
	return p.summary, nil
}

// pass holds the state of a single run. In dry-run mode its store is an
// overlay, so every decision sees the simulated results of earlier ones.
type pass struct {
	*Sorter
	store    storage.Provider
	locator  *locator.Locator
	resolver *resolver.Resolver
	summary  models.Summary
}

func (s *Sorter) newPass() *pass {
	store := s.base
	if !s.execute {
		store = storage.NewOverlay(s.base)
	}
	return &pass{
		Sorter:   s,
		store:    store,
		locator:  locator.New(store, s.logger),
		resolver: resolver.New(store),
	}
}

func (p *pass) emit(e models.Event) {
	e.DryRun = !p.execute
	p.summary.Record(e)
	p.logger.Debug("sorter: event",
		slog.String("kind", string(e.Kind)),
		slog.String("note", e.Note),
		slog.String("resource", e.Resource),
		slog.String("from", e.From),
		slog.String("to", e.To))
	if p.onEvent != nil {
		p.onEvent(e)
	}
}

func (p *pass) processNote(path string) error {
	data, err := p.store.Read(path)
	if err != nil {
		return err
	}
	note := parser.ParseNote(path, data)

	plan := p.strategy.PlanNote(note)
	if plan.Skip != "" {
		p.emit(models.Event{Kind: plan.Skip, Note: path})
		return nil
	}

	current := path
	if plan.Target != "" && plan.Target != path {
		if p.store.Exists(plan.Target) {
			p.emit(models.Event{Kind: models.EventSkipExists, Note: path, From: path, To: plan.Target})
			return nil
		}
		if err := p.store.Move(path, plan.Target); err != nil {
			return err
		}
		kind := models.EventWouldMove
		if p.execute {
			kind = models.EventMoved
		}
		p.emit(models.Event{Kind: kind, Note: path, From: path, To: plan.Target})
		current = plan.Target
	}

	edits := p.processResources(note, path)
	if len(edits) == 0 {
		return nil
	}

	text, err := parser.Rewrite(note.Content, edits)
	if err != nil {
		return err
	}
	if err := p.store.Write(current, []byte(text)); err != nil {
		return fmt.Errorf("sorter: write %s: %w", current, err)
	}
	for _, e := range edits {
		newRaw := e.Result()
		p.emit(models.Event{
			Kind:     models.EventLinkRewritten,
			Note:     path,
			Resource: e.Ref.Name,
			From:     e.Ref.Raw,
			To:       newRaw,
			Detail:   wordDiff(e.Ref.Raw, newRaw),
		})
	}
	return nil
}

// processResources handles the note's resource references in text order and
// returns the link edits they require. Failures are reported per resource.
func (p *pass) processResources(note *models.Note, path string) []parser.Edit {
	scope, ok := p.strategy.Scope(note)
	if !ok {
		return nil
	}

	// Every reference is located before anything moves, so two spellings of
	// the same file both find it.
	refs := parser.ResourceLinks(note.References)
	located := make([]locator.Resolution, len(refs))
	locateErrs := make([]error, len(refs))
	for i, ref := range refs {
		located[i], locateErrs[i] = p.locator.Locate(ref, scope)
	}

	var edits []parser.Edit
	// Keyed by located path: the file is resolved once and every reference
	// to it follows that decision.
	decided := make(map[string]*resolver.Decision)
	unresolved := make(map[string]struct{})

	for i, ref := range refs {
		res := located[i]
		if err := locateErrs[i]; err != nil {
			p.resourceFailed(path, ref, err)
			continue
		}
		if !res.Found() {
			if _, dup := unresolved[ref.Target]; dup {
				continue
			}
			unresolved[ref.Target] = struct{}{}
			p.emitUnresolved(path, ref, res)
			continue
		}

		key := filepath.Clean(res.Path)
		d, seen := decided[key]
		if !seen {
			var err error
			d, err = p.processResource(note, path, ref, res)
			decided[key] = d
			if err != nil {
				p.resourceFailed(path, ref, err)
				continue
			}
		}
		if d == nil {
			continue
		}
		if e, ok := p.strategy.Relink(ref, *d); ok {
			edits = append(edits, e)
		}
	}
	return edits
}

// emitUnresolved reports a reference with no usable file: outside when only
// files the strategy does not manage carry the name, missing otherwise.
func (p *pass) emitUnresolved(path string, ref models.Reference, res locator.Resolution) {
	if len(res.Rejected) > 0 {
		p.emit(models.Event{
			Kind:     models.EventResourceOutside,
			Note:     path,
			Resource: ref.Name,
			From:     res.Rejected[0],
			Detail:   ref.Target,
		})
		return
	}
	p.emit(models.Event{Kind: models.EventResourceMissing, Note: path, Resource: ref.Name, Detail: ref.Target})
}

func (p *pass) resourceFailed(path string, ref models.Reference, err error) {
	p.emit(models.Event{Kind: models.EventError, Note: path, Resource: ref.Name, Detail: err.Error(), Err: err})
	p.logger.Warn("sorter: resource failed",
		slog.String("note", path),
		slog.String("resource", ref.Name),
		slog.String("error", err.Error()))
}

// processResource resolves and applies one located reference. A nil
// decision means nothing was moved or kept for the link to follow.
func (p *pass) processResource(note *models.Note, path string, ref models.Reference, res locator.Resolution) (*resolver.Decision, error) {
	if res.Ambiguous() {
		p.warnAmbiguous(path, res)
	}

	destDir := p.strategy.ResourceDir(note, res)
	if filepath.Clean(filepath.Dir(res.Path)) == filepath.Clean(destDir) {
		p.emit(models.Event{Kind: models.EventResourceInPlace, Note: path, Resource: ref.Name, From: res.Path, To: res.Path})
		return nil, nil
	}

	d, err := p.resolver.Resolve(res.Path, destDir, filepath.Base(res.Path))
	if err != nil {
		return nil, err
	}
	if err := p.resolver.Apply(d); err != nil {
		return nil, err
	}

	e := models.Event{Note: path, Resource: ref.Name, From: res.Path, To: d.Dest}
	switch d.Action {
	case resolver.ActionSkipIdentical:
		e.Kind = models.EventResourceSkippedIdentical
	case resolver.ActionMoveRenamed:
		e.Kind = models.EventResourceRenamed
		e.Detail = d.Name
	default:
		e.Kind = models.EventResourceMoved
	}
	p.emit(e)
	return &d, nil
}

// warnAmbiguous logs every candidate with its digest when they differ.
func (p *pass) warnAmbiguous(path string, res locator.Resolution) {
	digests := make(map[string]struct{}, len(res.Candidates))
	attrs := []any{slog.String("note", path), slog.String("chosen", res.Path)}
	for _, c := range res.Candidates {
		sum, err := checksum.File(p.store, c)
		if err != nil {
			sum = "unreadable"
		}
		digests[sum] = struct{}{}
		attrs = append(attrs, slog.String(c, shortDigest(sum)))
	}
	if len(digests) > 1 {
		p.logger.Warn("sorter: different files share a name", attrs...)
	}
}

func shortDigest(sum string) string {
	if len(sum) > 8 {
		return sum[:8]
	}
	return sum
}
