// Package parser extracts dates and resource references from Markdown notes.
package parser

import (
	"path/filepath"

	"github.com/starford/vaultsort/internal/models"
)

// ParseNote builds a Note from raw bytes. path is kept verbatim; only its
// base name takes part in date extraction.
func ParseNote(path string, data []byte) *models.Note {
	text := string(data)
	year, source := ExtractYear(text, filepath.Base(path))
	return &models.Note{
		Path:       path,
		Content:    text,
		Year:       year,
		YearSource: source,
		References: ScanLinks(text),
	}
}
