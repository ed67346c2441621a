// Package report renders pass events and summaries for the console.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/starford/vaultsort/internal/models"
)

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

var rule = strings.Repeat("-", 60)

// Header describes a pass before it starts.
type Header struct {
	Mode      string
	Notes     int
	Resources string
	Execute   bool
}

// Reporter writes human-readable pass output.
type Reporter struct {
	w        io.Writer
	colorize bool
}

// New returns a Reporter writing to w. Color is used only on terminals.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w, colorize: shouldColorize(w)}
}

// Header prints the preamble of a pass.
func (r *Reporter) Header(h Header) {
	if h.Notes == 0 {
		r.printf("No markdown files found\n")
	} else {
		r.printf("Found %d markdown file(s)\n", h.Notes)
	}
	if h.Resources != "" {
		r.printf("Resources directory: %s\n", h.Resources)
	}
	if h.Mode != "" {
		r.printf("Strategy: %s\n", h.Mode)
	}
	if h.Execute {
		r.printf("Mode: %s\n", r.bold("EXECUTE"))
	} else {
		r.printf("Mode: DRY-RUN (use --execute to actually move files)\n")
	}
	r.printf("%s\n", rule)
}

// Event prints a single event line.
func (r *Reporter) Event(e models.Event) {
	if line := Line(e); line != "" {
		r.printf("%s\n", line)
	}
}

// Line formats e the way it appears on the console. Resource outcomes are
// indented under their note.
func Line(e models.Event) string {
	from, to := slash(e.From), slash(e.To)
	switch e.Kind {
	case models.EventMoved:
		return fmt.Sprintf("MOVED: %s -> %s", from, to)
	case models.EventWouldMove:
		return fmt.Sprintf("WOULD MOVE: %s -> %s", from, to)
	case models.EventSkipNoDate:
		return fmt.Sprintf("SKIP (no date): %s", slash(e.Note))
	case models.EventSkipExists:
		return fmt.Sprintf("SKIP (exists): %s -> %s", from, to)
	case models.EventResourceMissing:
		return fmt.Sprintf("  WARN: Resource not found: %s", e.Resource)
	case models.EventResourceSkippedIdentical:
		return fmt.Sprintf("  RESOURCE (identical): %s", e.Resource)
	case models.EventResourceInPlace:
		return fmt.Sprintf("  SKIP (already optimal): %s", e.Resource)
	case models.EventResourceOutside:
		return fmt.Sprintf("  SKIP (outside resources): %s at %s", e.Resource, from)
	case models.EventResourceRenamed:
		if e.DryRun {
			return fmt.Sprintf("  WOULD RENAME RESOURCE: %s -> %s", e.Resource, e.Detail)
		}
		return fmt.Sprintf("  RESOURCE (renamed): %s -> %s", e.Resource, e.Detail)
	case models.EventResourceMoved:
		if e.DryRun {
			return fmt.Sprintf("  WOULD MOVE RESOURCE: %s -> %s", e.Resource, to)
		}
		return fmt.Sprintf("  RESOURCE: %s -> %s", e.Resource, to)
	case models.EventLinkRewritten:
		if e.DryRun {
			return fmt.Sprintf("  WOULD UPDATE: %s %s", filepath.Base(e.Note), e.Detail)
		}
		return fmt.Sprintf("  UPDATED: %s %s", filepath.Base(e.Note), e.Detail)
	case models.EventError:
		if e.Resource != "" {
			return fmt.Sprintf("  ERROR moving resource %s: %s", e.Resource, e.Detail)
		}
		return fmt.Sprintf("ERROR %s: %s", slash(e.Note), e.Detail)
	}
	return ""
}

// Summary prints the counters as a table. Zero-valued optional rows are
// left out.
func (r *Reporter) Summary(sum models.Summary, execute bool) {
	r.printf("%s\n", rule)
	r.printf("%s\n", r.bold("Summary:"))

	moved := "Would move"
	if execute {
		moved = "Moved"
	}
	rows := [][]string{
		{moved, strconv.Itoa(sum.Moved)},
		{"Skipped (no date)", strconv.Itoa(sum.SkippedNoDate)},
		{"Skipped (exists)", strconv.Itoa(sum.SkippedExists)},
		{"Resources moved", strconv.Itoa(sum.ResourcesMoved)},
		{"Resources renamed", strconv.Itoa(sum.ResourcesRenamed)},
	}
	optional := []struct {
		label string
		n     int
	}{
		{"Resources identical", sum.ResourcesIdentical},
		{"Resources in place", sum.ResourcesInPlace},
		{"Resources outside", sum.ResourcesOutside},
		{"Resources missing", sum.ResourcesMissing},
		{"Links rewritten", sum.LinksRewritten},
		{"Errors", sum.Errors},
	}
	for _, o := range optional {
		if o.n > 0 {
			rows = append(rows, []string{o.label, strconv.Itoa(o.n)})
		}
	}
	r.printf("%s\n", renderTable([]string{"Outcome", "Count"}, rows, r.colorize))
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func (r *Reporter) bold(s string) string {
	if !r.colorize {
		return s
	}
	return ansiBold + s + ansiReset
}

func renderTable(headers []string, rows [][]string, colorize bool) string {
	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func slash(p string) string {
	if p == "" {
		return p
	}
	return filepath.ToSlash(p)
}
