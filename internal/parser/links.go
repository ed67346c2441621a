package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/models"
)

// CanonicalDir is the directory prefix used for relocated resources.
const CanonicalDir = "_resources/"

// Groups: 1 embed marker, 2 target, 3 #subpath, 4 display text.
var linkRe = regexp.MustCompile(`(!?)\[\[([^\[\]|#\n]+)(#[^\[\]|\n]*)?(?:\|([^\[\]\n]*))?\]\]`)

// ScanLinks returns every [[...]] and ![[...]] reference in text, in order of
// appearance. Links inside fenced code blocks are ignored.
func ScanLinks(text string) []models.Reference {
	fences := fencedRanges(text)
	var out []models.Reference
	for _, m := range linkRe.FindAllStringSubmatchIndex(text, -1) {
		if inRanges(fences, m[0]) {
			continue
		}
		target := text[m[4]:m[5]]
		dir, name := splitTarget(target)
		if strings.TrimSpace(name) == "" {
			continue
		}
		ref := models.Reference{
			Raw:        text[m[0]:m[1]],
			Embed:      m[3] > m[2],
			Target:     target,
			Dir:        dir,
			Name:       name,
			Span:       models.Span{Start: m[0], End: m[1]},
			TargetSpan: models.Span{Start: m[4], End: m[5]},
		}
		if m[6] >= 0 {
			ref.Subpath = text[m[6]:m[7]]
		}
		if m[8] >= 0 {
			ref.Display = text[m[8]:m[9]]
			ref.HasDisplay = true
		}
		out = append(out, ref)
	}
	return out
}

// ResourceLinks filters refs down to resource references.
func ResourceLinks(refs []models.Reference) []models.Reference {
	var out []models.Reference
	for _, r := range refs {
		if r.IsResource() {
			out = append(out, r)
		}
	}
	return out
}

func splitTarget(target string) (dir, name string) {
	if i := strings.LastIndex(target, "/"); i >= 0 {
		return target[:i+1], target[i+1:]
	}
	return "", target
}

// fencedRanges returns byte ranges covered by ``` fences. An unclosed fence
// runs to the end of the text.
func fencedRanges(text string) []models.Span {
	var out []models.Span
	open := -1
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if open < 0 {
				open = offset
			} else {
				out = append(out, models.Span{Start: open, End: offset + len(line)})
				open = -1
			}
		}
		offset += len(line)
	}
	if open >= 0 {
		out = append(out, models.Span{Start: open, End: len(text)})
	}
	return out
}

func inRanges(ranges []models.Span, pos int) bool {
	for _, r := range ranges {
		if pos >= r.Start && pos < r.End {
			return true
		}
	}
	return false
}

// Edit replaces the target portion of Ref with Target.
type Edit struct {
	Ref    models.Reference
	Target string
}

// Result returns the reference text after the edit.
func (e Edit) Result() string {
	start := e.Ref.TargetSpan.Start - e.Ref.Span.Start
	end := e.Ref.TargetSpan.End - e.Ref.Span.Start
	return e.Ref.Raw[:start] + e.Target + e.Ref.Raw[end:]
}

// Rename returns an edit that swaps the filename and keeps the prefix.
func Rename(ref models.Reference, name string) Edit {
	return Edit{Ref: ref, Target: ref.WithName(name)}
}

// Canonicalize returns an edit that points ref at _resources/<name>.
func Canonicalize(ref models.Reference, name string) Edit {
	return Edit{Ref: ref, Target: CanonicalDir + name}
}

// Rewrite applies edits to text. Every edit's spans must refer to text as it
// is now; the result is built in a fresh buffer so edits never shift each
// other.
func Rewrite(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ref.Span.Start < sorted[j].Ref.Span.Start
	})

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, e := range sorted {
		s, ts := e.Ref.Span, e.Ref.TargetSpan
		if s.Start < pos || s.End > len(text) || text[s.Start:s.End] != e.Ref.Raw {
			return "", fmt.Errorf("parser: rewrite %q at %d: %w", e.Ref.Raw, s.Start, apperr.ErrStaleReference)
		}
		b.WriteString(text[pos:ts.Start])
		b.WriteString(e.Target)
		b.WriteString(text[ts.End:s.End])
		pos = s.End
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
