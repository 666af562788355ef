package specdoc

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Document is one harvested API description for a service. Versions are
// append-only: a re-harvest with identical content reuses the prior version,
// a changed body inserts the next version.
type Document struct {
	ID          string    `json:"id"`
	ServiceName string    `json:"serviceName"`
	Namespace   string    `json:"namespace"`
	SourceURL   string    `json:"sourceUrl"`
	Version     int       `json:"version"`
	ContentHash string    `json:"contentHash"`
	RawContent  string    `json:"-"`
	ParseValid  bool      `json:"parseValid"`
	ParseErrors []string  `json:"parseErrors,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`

	// Tree is the parsed schema tree. Rebuilt from RawContent, never stored.
	Tree *Tree `json:"-"`
}
