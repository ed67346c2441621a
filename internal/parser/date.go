package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultsort/internal/models"
)

// MetadataMarker delimits the metadata block at the top of a note.
const MetadataMarker = "---"

var (
	createdLineRe  = regexp.MustCompile(`(?m)^Created at:[ \t]*(.*?)[ \t\r]*$`)
	createdValueRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:[ T].*)?$`)
	filenameDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})_`)
)

// ExtractYear returns the note's year and where it came from. The metadata
// block wins over the filename; YearNone means no date was found.
func ExtractYear(text, filename string) (int, models.YearSource) {
	if block, ok := metadataBlock(text); ok {
		if year, ok := yearFromMetadata(block); ok {
			return year, models.YearMetadata
		}
	}
	if year, ok := yearFromFilename(filename); ok {
		return year, models.YearFilename
	}
	return 0, models.YearNone
}

// metadataBlock returns the text between a leading marker line and the next
// marker line.
func metadataBlock(text string) (string, bool) {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) < 2 || !isMarker(lines[0]) {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if isMarker(lines[i]) {
			return strings.Join(lines[1:i], ""), true
		}
	}
	return "", false
}

func isMarker(line string) bool {
	return strings.TrimRight(line, " \t\r\n") == MetadataMarker
}

type createdHeader struct {
	CreatedAt string `yaml:"Created at"`
}

// yearFromMetadata reads "Created at" from the block. Blocks that are not
// valid YAML are scanned line by line instead.
func yearFromMetadata(block string) (int, bool) {
	var h createdHeader
	value := ""
	if err := yaml.Unmarshal([]byte(block), &h); err == nil {
		value = h.CreatedAt
	} else if m := createdLineRe.FindStringSubmatch(block); m != nil {
		value = m[1]
	}
	return parseCreated(strings.TrimSpace(value))
}

func parseCreated(value string) (int, bool) {
	m := createdValueRe.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	t, err := time.Parse(time.DateOnly, m[1])
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}

func yearFromFilename(name string) (int, bool) {
	m := filenameDateRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, false
	}
	return year, true
}
