package reports

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"governance-backend/internal/shared/telemetry"
)

// Store is the append-only publish path for reports. Publishes are
// serialized; at most one is in flight, later callers queue behind it.
type Store struct {
	Repo Repo

	publishMu sync.Mutex
}

// NewStore constructs a Store over the given repository.
func NewStore(repo Repo) *Store {
	return &Store{Repo: repo}
}

// Publish assigns the report its identity and persists it. The returned id
// is permanent; the report is immutable from here on.
func (s *Store) Publish(ctx context.Context, report Report) (string, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	if err := s.Repo.Insert(ctx, report); err != nil {
		return "", err
	}
	telemetry.Info("report.published", map[string]any{
		"report_id":      report.ID,
		"specs_analyzed": report.SpecsAnalyzed,
		"issues":         len(report.Issues),
	})
	return report.ID, nil
}

// GetLatest returns the most recently published report. It is a pure
// lookup; nothing is recomputed.
func (s *Store) GetLatest(ctx context.Context) (Report, error) {
	return s.Repo.Latest(ctx)
}

// Get returns a report by id.
func (s *Store) Get(ctx context.Context, id string) (Report, error) {
	return s.Repo.Get(ctx, id)
}
