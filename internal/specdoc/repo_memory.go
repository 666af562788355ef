package specdoc

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores spec documents in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byService map[string][]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byService: make(map[string][]Document)}
}

func serviceKey(serviceName, namespace string) string {
	return namespace + "/" + serviceName
}

// Latest returns the highest stored version for a service.
func (r *MemoryRepo) Latest(ctx context.Context, serviceName, namespace string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.byService[serviceKey(serviceName, namespace)]
	if len(versions) == 0 {
		return Document{}, ErrNotFound
	}
	return versions[len(versions)-1], nil
}

// Insert appends a new document version.
func (r *MemoryRepo) Insert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := serviceKey(doc.ServiceName, doc.Namespace)
	r.byService[key] = append(r.byService[key], doc)
	return nil
}

// PruneOlderThan deletes superseded versions fetched before cutoff.
func (r *MemoryRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for key, versions := range r.byService {
		if len(versions) <= 1 {
			continue
		}
		kept := make([]Document, 0, len(versions))
		for i, doc := range versions {
			if i == len(versions)-1 || !doc.FetchedAt.Before(cutoff) {
				kept = append(kept, doc)
				continue
			}
			pruned++
		}
		r.byService[key] = kept
	}
	return pruned, nil
}

var _ Repo = (*MemoryRepo)(nil)
