package models

// EventKind classifies a record emitted during a pass.
type EventKind string

const (
	EventMoved                    EventKind = "moved"
	EventWouldMove                EventKind = "would-move"
	EventSkipNoDate               EventKind = "skip-no-date"
	EventSkipExists               EventKind = "skip-exists"
	EventResourceMoved            EventKind = "resource-moved"
	EventResourceSkippedIdentical EventKind = "resource-skipped-identical"
	EventResourceRenamed          EventKind = "resource-renamed"
	EventResourceMissing          EventKind = "resource-missing"
	EventResourceInPlace          EventKind = "resource-in-place"
	EventResourceOutside          EventKind = "resource-outside"
	EventLinkRewritten            EventKind = "link-rewritten"
	EventError                    EventKind = "error"
)

// Event is one per-note or per-resource outcome.
type Event struct {
	Kind     EventKind `json:"kind"`
	Note     string    `json:"note"`
	Resource string    `json:"resource,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	DryRun   bool      `json:"dry_run"`
	Err      error     `json:"-"`
}

// Summary holds the counters of a pass.
type Summary struct {
	Moved              int `json:"moved"`
	SkippedNoDate      int `json:"skipped_no_date"`
	SkippedExists      int `json:"skipped_exists"`
	ResourcesMoved     int `json:"resources_moved"`
	ResourcesRenamed   int `json:"resources_renamed"`
	ResourcesIdentical int `json:"resources_identical"`
	ResourcesMissing   int `json:"resources_missing"`
	ResourcesInPlace   int `json:"resources_in_place"`
	ResourcesOutside   int `json:"resources_outside"`
	LinksRewritten     int `json:"links_rewritten"`
	Errors             int `json:"errors"`
}

// Record updates the counter matching e.
func (s *Summary) Record(e Event) {
	switch e.Kind {
	case EventMoved, EventWouldMove:
		s.Moved++
	case EventSkipNoDate:
		s.SkippedNoDate++
	case EventSkipExists:
		s.SkippedExists++
	case EventResourceMoved:
		s.ResourcesMoved++
	case EventResourceRenamed:
		s.ResourcesRenamed++
	case EventResourceSkippedIdentical:
		s.ResourcesIdentical++
	case EventResourceMissing:
		s.ResourcesMissing++
	case EventResourceInPlace:
		s.ResourcesInPlace++
	case EventResourceOutside:
		s.ResourcesOutside++
	case EventLinkRewritten:
		s.LinksRewritten++
	case EventError:
		s.Errors++
	}
}

// Total returns the number of file-system changes the pass made or would make.
func (s Summary) Total() int {
	return s.Moved + s.ResourcesMoved + s.ResourcesRenamed
}
