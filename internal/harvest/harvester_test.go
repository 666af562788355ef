package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"governance-backend/internal/discovery"
	"governance-backend/internal/specdoc"
)

const donorSpec = `{
  "openapi": "3.0.1",
  "components": {
    "schemas": {
      "Donor": {
        "type": "object",
        "required": ["firstName"],
        "properties": {
          "firstName": {"type": "string"},
          "zip": {"type": "integer"}
        }
      }
    }
  }
}`

func newTestHarvester(server *httptest.Server, repo specdoc.Repo) *Harvester {
	fetcher := NewFetcher(2*time.Second, 2)
	fetcher.Client = server.Client()
	return &Harvester{Fetcher: fetcher, Repo: repo, Concurrency: 4}
}

func descriptorFor(server *httptest.Server, name, path string) discovery.ServiceDescriptor {
	return discovery.ServiceDescriptor{
		Name:             name,
		Namespace:        "blood-bank",
		CandidateSpecURL: server.URL + path,
	}
}

func TestHarvestIsolatesFailedService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(donorSpec))
	}))
	defer server.Close()

	h := newTestHarvester(server, specdoc.NewMemoryRepo())
	descriptors := []discovery.ServiceDescriptor{
		descriptorFor(server, "donor-service", "/donor"),
		descriptorFor(server, "sample-service", "/sample"),
		descriptorFor(server, "inventory-service", "/inventory"),
		descriptorFor(server, "transfusion-service", "/transfusion"),
		descriptorFor(server, "broken-service", "/broken"),
	}

	docs, summary := h.Harvest(context.Background(), descriptors)

	if summary.Discovered != 5 || summary.Fetched != 4 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.SuccessRate != 0.8 {
		t.Fatalf("expected success rate 0.8, got %v", summary.SuccessRate)
	}
	if len(docs) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(docs))
	}
	if len(summary.Failures) != 1 || summary.Failures[0].ServiceName != "broken-service" {
		t.Fatalf("expected broken-service failure, got %+v", summary.Failures)
	}
	for _, doc := range docs {
		if !doc.ParseValid || doc.Tree == nil {
			t.Fatalf("expected parsed document for %s", doc.ServiceName)
		}
		if doc.Version != 1 {
			t.Fatalf("expected first version for %s, got %d", doc.ServiceName, doc.Version)
		}
	}
}

func TestHarvestClientErrorYieldsInvalidDocumentWithoutRetry(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	h := newTestHarvester(server, specdoc.NewMemoryRepo())
	docs, summary := h.Harvest(context.Background(), []discovery.ServiceDescriptor{
		descriptorFor(server, "donor-service", "/missing"),
	})

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected a single request for a 404, got %d", hits)
	}
	if summary.Fetched != 1 || summary.Failed != 0 {
		t.Fatalf("expected the 404 recorded as a fetched document: %+v", summary)
	}
	if len(docs) != 1 || docs[0].ParseValid {
		t.Fatalf("expected one invalid document, got %+v", docs)
	}
	if len(docs[0].ParseErrors) == 0 {
		t.Fatalf("expected parse errors on invalid document")
	}
}

func TestHarvestVersioningIsIdempotentOnContent(t *testing.T) {
	content := atomic.Pointer[string]{}
	initial := donorSpec
	content.Store(&initial)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(*content.Load()))
	}))
	defer server.Close()

	repo := specdoc.NewMemoryRepo()
	h := newTestHarvester(server, repo)
	descriptors := []discovery.ServiceDescriptor{
		descriptorFor(server, "donor-service", "/donor"),
	}

	docs, _ := h.Harvest(context.Background(), descriptors)
	if docs[0].Version != 1 {
		t.Fatalf("expected version 1, got %d", docs[0].Version)
	}

	docs, _ = h.Harvest(context.Background(), descriptors)
	if docs[0].Version != 1 {
		t.Fatalf("expected unchanged content to keep version 1, got %d", docs[0].Version)
	}

	changed := strings.Replace(donorSpec, `"zip"`, `"zipCode"`, 1)
	content.Store(&changed)
	docs, _ = h.Harvest(context.Background(), descriptors)
	if docs[0].Version != 2 {
		t.Fatalf("expected changed content to bump version to 2, got %d", docs[0].Version)
	}

	latest, err := repo.Latest(context.Background(), "donor-service", "blood-bank")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Version != 2 {
		t.Fatalf("expected stored latest version 2, got %d", latest.Version)
	}
}

func TestHarvestMalformedBodyKeptAsInvalidDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a spec</html>"))
	}))
	defer server.Close()

	h := newTestHarvester(server, specdoc.NewMemoryRepo())
	docs, summary := h.Harvest(context.Background(), []discovery.ServiceDescriptor{
		descriptorFor(server, "legacy-service", "/spec"),
	})

	if summary.Fetched != 1 || len(docs) != 1 {
		t.Fatalf("expected one fetched document, got %+v", summary)
	}
	if docs[0].ParseValid || len(docs[0].ParseErrors) == 0 {
		t.Fatalf("expected malformed body flagged invalid, got %+v", docs[0])
	}
}
