package specdoc

import (
	"context"
	"time"
)

// Repo defines persistence operations for harvested spec documents.
type Repo interface {
	// Latest returns the most recent version stored for a service, or
	// ErrNotFound when the service has never been harvested.
	Latest(ctx context.Context, serviceName, namespace string) (Document, error)
	// Insert stores a new document version. Versions are never overwritten.
	Insert(ctx context.Context, doc Document) error
	// PruneOlderThan deletes superseded versions fetched before cutoff. The
	// latest version of each service is always retained.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
