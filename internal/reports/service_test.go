package reports

import (
	"context"
	"sync"
	"testing"

	"governance-backend/internal/analysis"
)

func TestPublishAssignsIdentityAndStores(t *testing.T) {
	store := NewStore(NewMemoryRepo())
	id, err := store.Publish(context.Background(), Report{
		SpecsAnalyzed: 3,
		Issues:        []analysis.Issue{{Severity: analysis.SeverityMajor}},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id == "" {
		t.Fatalf("expected an assigned report id")
	}

	latest, err := store.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.ID != id || latest.GeneratedAt.IsZero() {
		t.Fatalf("expected stored report with identity, got %+v", latest)
	}

	byID, err := store.Get(context.Background(), id)
	if err != nil || byID.ID != id {
		t.Fatalf("expected lookup by id to succeed, got %+v err=%v", byID, err)
	}
}

func TestGetLatestReturnsMostRecentPublish(t *testing.T) {
	store := NewStore(NewMemoryRepo())
	first, _ := store.Publish(context.Background(), Report{SpecsAnalyzed: 1})
	second, _ := store.Publish(context.Background(), Report{SpecsAnalyzed: 2})
	if first == second {
		t.Fatalf("expected distinct report ids")
	}

	latest, err := store.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.ID != second {
		t.Fatalf("expected latest report %s, got %s", second, latest.ID)
	}
}

func TestConcurrentPublishesAllLand(t *testing.T) {
	store := NewStore(NewMemoryRepo())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Publish(context.Background(), Report{}); err != nil {
				t.Errorf("publish: %v", err)
			}
		}()
	}
	wg.Wait()

	repo := store.Repo.(*MemoryRepo)
	if len(repo.ordered) != 8 {
		t.Fatalf("expected 8 stored reports, got %d", len(repo.ordered))
	}
}

func TestGetLatestEmptyStoreReturnsNotFound(t *testing.T) {
	store := NewStore(NewMemoryRepo())
	if _, err := store.GetLatest(context.Background()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
