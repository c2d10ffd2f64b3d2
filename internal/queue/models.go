package queue

import (
	"image"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusDone, StatusError}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// Label renders the status for tables and notifications. Casers carry state,
// so one is built per call.
func (s Status) Label() string {
	return cases.Title(language.English).String(string(s))
}

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Source references the input image. Exactly one field is set.
type Source struct {
	// URL is an http(s), file or data URI.
	URL string
	// Data holds raw encoded image bytes supplied in memory.
	Data []byte
}

// IsZero reports whether neither a URL nor bytes are present.
func (s Source) IsZero() bool {
	return s.URL == "" && len(s.Data) == 0
}

// Kind describes the source for logs and listings.
func (s Source) Kind() string {
	if len(s.Data) > 0 {
		return "bytes"
	}
	return "url"
}

// Item is one submitted unit of work.
type Item struct {
	ID          string
	Source      Source
	Name        string
	SizeBytes   int64
	Status      Status
	ErrorDetail string
	SubmittedAt time.Time
}

// Result is produced when an item completes successfully. Images are shared
// between copies and must not be mutated.
type Result struct {
	ID          string
	Name        string
	Source      Source
	SubmittedAt time.Time
	Mask        *image.Gray
	Cutout      *image.NRGBA
	Width       int
	Height      int
	CompletedAt time.Time
}

// Snapshot is a derived view of queue and result counts.
type Snapshot struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

// IsZero reports whether every count is zero.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}
