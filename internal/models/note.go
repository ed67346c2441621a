// Package models defines the domain types shared by the sorter and its collaborators.
package models

import (
	"path"
	"strings"
)

// YearSource records where a note's year came from.
type YearSource string

const (
	YearNone     YearSource = ""
	YearMetadata YearSource = "metadata"
	YearFilename YearSource = "filename"
)

// Note is one markdown file taking part in a pass.
type Note struct {
	Path       string      `json:"path"`
	Content    string      `json:"-"`
	Year       int         `json:"year,omitempty"`
	YearSource YearSource  `json:"year_source,omitempty"`
	References []Reference `json:"references,omitempty"`
}

// Dated reports whether a year was extracted.
func (n *Note) Dated() bool {
	return n.YearSource != YearNone
}

// Span is a half-open byte range into a note's text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is a single [[...]] or ![[...]] occurrence in a note.
//
// Spans point into the text the reference was scanned from; they are never
// adjusted after an edit.
type Reference struct {
	Raw        string `json:"raw"`
	Embed      bool   `json:"embed"`
	Target     string `json:"target"`
	Dir        string `json:"dir,omitempty"`
	Name       string `json:"name"`
	Subpath    string `json:"subpath,omitempty"`
	Display    string `json:"display,omitempty"`
	HasDisplay bool   `json:"has_display,omitempty"`
	Span       Span   `json:"span"`
	TargetSpan Span   `json:"target_span"`
}

// IsResource reports whether the reference points at a non-note file.
func (r Reference) IsResource() bool {
	ext := strings.ToLower(path.Ext(r.Name))
	return ext != "" && ext != ".md"
}

// HasPath reports whether the target carries a directory component.
func (r Reference) HasPath() bool {
	return r.Dir != ""
}

// WithName returns the target with the filename replaced and the directory
// prefix kept as written.
func (r Reference) WithName(name string) string {
	return r.Dir + name
}
