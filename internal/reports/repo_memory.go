package reports

import (
	"context"
	"sync"
)

// MemoryRepo keeps published reports in memory, append-only.
type MemoryRepo struct {
	mu      sync.RWMutex
	ordered []Report
	byID    map[string]Report
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Report)}
}

// Insert appends a report.
func (r *MemoryRepo) Insert(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordered = append(r.ordered, report)
	r.byID[report.ID] = report
	return nil
}

// Latest returns the most recently published report.
func (r *MemoryRepo) Latest(ctx context.Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ordered) == 0 {
		return Report{}, ErrNotFound
	}
	return r.ordered[len(r.ordered)-1], nil
}

// Get returns a report by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.byID[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return report, nil
}

// Len reports how many reports have been published.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

var _ Repo = (*MemoryRepo)(nil)
