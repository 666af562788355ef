package harvest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"governance-backend/internal/discovery"
	"governance-backend/internal/shared/metrics"
	"governance-backend/internal/shared/telemetry"
	"governance-backend/internal/shared/util"
	"governance-backend/internal/specdoc"
)

// Failure records why one service produced no document.
type Failure struct {
	ServiceName string `json:"serviceName"`
	Namespace   string `json:"namespace"`
	Reason      string `json:"reason"`
}

// Summary reports the outcome of one harvest pass.
type Summary struct {
	Discovered  int       `json:"discovered"`
	Fetched     int       `json:"fetched"`
	Failed      int       `json:"failed"`
	SuccessRate float64   `json:"successRate"`
	Failures    []Failure `json:"failures,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Harvester fetches spec documents for discovered services under a bounded
// worker pool and assigns content-hash based versions.
type Harvester struct {
	Fetcher     *Fetcher
	Repo        specdoc.Repo
	Concurrency int
}

type workResult struct {
	doc     specdoc.Document
	ok      bool
	failure Failure
}

// Harvest fetches every descriptor's candidate spec URL. Per-service
// failures are isolated; the summary always reports them.
func (h *Harvester) Harvest(ctx context.Context, descriptors []discovery.ServiceDescriptor) ([]specdoc.Document, Summary) {
	summary := Summary{
		Discovered: len(descriptors),
		StartedAt:  time.Now().UTC(),
	}
	if len(descriptors) == 0 {
		summary.CompletedAt = time.Now().UTC()
		return nil, summary
	}

	concurrency := h.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	if concurrency > len(descriptors) {
		concurrency = len(descriptors)
	}

	jobs := make(chan discovery.ServiceDescriptor)
	results := make(chan workResult, len(descriptors))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for desc := range jobs {
				results <- h.harvestOne(ctx, desc)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, desc := range descriptors {
			select {
			case jobs <- desc:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var documents []specdoc.Document
	for res := range results {
		if res.ok {
			documents = append(documents, res.doc)
			summary.Fetched++
			metrics.ObserveFetch(metrics.OutcomeSuccess)
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, res.failure)
		metrics.ObserveFetch(metrics.OutcomeError)
	}

	sort.Slice(documents, func(i, j int) bool {
		a, b := documents[i], documents[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.ServiceName < b.ServiceName
	})
	sort.Slice(summary.Failures, func(i, j int) bool {
		a, b := summary.Failures[i], summary.Failures[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.ServiceName < b.ServiceName
	})

	if summary.Discovered > 0 {
		summary.SuccessRate = float64(summary.Fetched) / float64(summary.Discovered)
	}
	summary.CompletedAt = time.Now().UTC()

	telemetry.Info("harvest.complete", map[string]any{
		"discovered":   summary.Discovered,
		"fetched":      summary.Fetched,
		"failed":       summary.Failed,
		"success_rate": summary.SuccessRate,
	})
	return documents, summary
}

func (h *Harvester) harvestOne(ctx context.Context, desc discovery.ServiceDescriptor) workResult {
	body, err := h.Fetcher.Fetch(ctx, desc.CandidateSpecURL)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			// A 4xx is a reachable service with no usable spec; surface it in
			// the report as an invalid document rather than a fetch failure.
			doc := specdoc.Document{
				ID:          uuid.NewString(),
				ServiceName: desc.Name,
				Namespace:   desc.Namespace,
				SourceURL:   desc.CandidateSpecURL,
				ParseValid:  false,
				ParseErrors: []string{err.Error()},
				FetchedAt:   time.Now().UTC(),
			}
			h.assignVersion(ctx, &doc, nil)
			return workResult{doc: doc, ok: true}
		}
		telemetry.Warn("harvest.fetch_failed", map[string]any{
			"service":   desc.Name,
			"namespace": desc.Namespace,
			"error":     err.Error(),
		})
		return workResult{failure: Failure{
			ServiceName: desc.Name,
			Namespace:   desc.Namespace,
			Reason:      err.Error(),
		}}
	}

	doc := specdoc.Document{
		ID:          uuid.NewString(),
		ServiceName: desc.Name,
		Namespace:   desc.Namespace,
		SourceURL:   desc.CandidateSpecURL,
		RawContent:  string(body),
		ParseValid:  true,
		FetchedAt:   time.Now().UTC(),
	}

	tree, err := specdoc.Parse(body)
	if err != nil {
		doc.ParseValid = false
		doc.ParseErrors = []string{err.Error()}
	} else {
		doc.Tree = tree
	}

	h.assignVersion(ctx, &doc, body)
	return workResult{doc: doc, ok: true}
}

// assignVersion gives the document its monotonic per-service version. A body
// whose content hash equals the latest stored version reuses that version
// instead of inserting a new row.
func (h *Harvester) assignVersion(ctx context.Context, doc *specdoc.Document, body []byte) {
	doc.ContentHash = util.HashContent(body)
	if h.Repo == nil {
		doc.Version = 1
		return
	}

	latest, err := h.Repo.Latest(ctx, doc.ServiceName, doc.Namespace)
	switch {
	case errors.Is(err, specdoc.ErrNotFound):
		doc.Version = 1
	case err != nil:
		telemetry.Warn("harvest.version_lookup_failed", map[string]any{
			"service": doc.ServiceName,
			"error":   err.Error(),
		})
		doc.Version = 1
	case latest.ContentHash == doc.ContentHash:
		doc.Version = latest.Version
		return
	default:
		doc.Version = latest.Version + 1
	}

	if err := h.Repo.Insert(ctx, *doc); err != nil {
		telemetry.Warn("harvest.store_failed", map[string]any{
			"service": doc.ServiceName,
			"version": doc.Version,
			"error":   err.Error(),
		})
	}
}
