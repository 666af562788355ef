package discovery

import (
	"context"
	"errors"
	"testing"
)

type fakeLister struct {
	byNamespace map[string][]ClusterService
	failures    map[string]error
}

func (f *fakeLister) ListServices(ctx context.Context, namespace, labelSelector string) ([]ClusterService, error) {
	if err, ok := f.failures[namespace]; ok {
		return nil, err
	}
	return f.byNamespace[namespace], nil
}

func testConfig() Config {
	return Config{
		Namespaces:    []string{"blood-bank", "lab"},
		LabelSelector: "service-type=spring-boot",
		SpecPath:      "/v3/api-docs",
		HealthPath:    "/actuator/health",
	}
}

func TestDiscoverNormalizesDescriptors(t *testing.T) {
	lister := &fakeLister{
		byNamespace: map[string][]ClusterService{
			"blood-bank": {
				{
					Name:        "donor-service",
					Labels:      map[string]string{"service-type": "spring-boot", "istio-injection": "enabled"},
					Annotations: map[string]string{},
					Ports:       []int{8080},
				},
				{
					Name:   "legacy-ui",
					Labels: map[string]string{"service-type": "frontend"},
				},
			},
		},
	}

	adapter := &Adapter{Client: lister, Cfg: testConfig()}
	pass, err := adapter.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(pass.Descriptors) != 1 {
		t.Fatalf("expected 1 descriptor after label filter, got %d", len(pass.Descriptors))
	}
	desc := pass.Descriptors[0]
	if desc.CandidateSpecURL != "http://donor-service.blood-bank.svc.cluster.local:8080/v3/api-docs" {
		t.Fatalf("unexpected spec URL %q", desc.CandidateSpecURL)
	}
	if desc.HealthURL != "http://donor-service.blood-bank.svc.cluster.local:8080/actuator/health" {
		t.Fatalf("unexpected health URL %q", desc.HealthURL)
	}
	if !desc.MeshSidecarPresent {
		t.Fatalf("expected sidecar present from istio-injection label")
	}
	if !desc.Healthy {
		t.Fatalf("expected healthy by default without prober")
	}
}

func TestDiscoverSkipsFailedNamespace(t *testing.T) {
	lister := &fakeLister{
		byNamespace: map[string][]ClusterService{
			"lab": {
				{
					Name:   "sample-service",
					Labels: map[string]string{"service-type": "spring-boot"},
					Ports:  []int{9090},
				},
			},
		},
		failures: map[string]error{
			"blood-bank": errors.New("connection refused"),
		},
	}

	adapter := &Adapter{Client: lister, Cfg: testConfig()}
	pass, err := adapter.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(pass.Descriptors) != 1 || pass.Descriptors[0].Name != "sample-service" {
		t.Fatalf("expected lab namespace to proceed, got %+v", pass.Descriptors)
	}
	if pass.NamespaceFailures["blood-bank"] == "" {
		t.Fatalf("expected recorded namespace failure")
	}
}

func TestDiscoverEmptyMatchIsNotAnError(t *testing.T) {
	adapter := &Adapter{Client: &fakeLister{}, Cfg: testConfig()}
	pass, err := adapter.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(pass.Descriptors) != 0 {
		t.Fatalf("expected empty descriptor list, got %d", len(pass.Descriptors))
	}
}

type fakeProber struct {
	healthy map[string]bool
}

func (f *fakeProber) Probe(ctx context.Context, url string) bool {
	return f.healthy[url]
}

func TestDiscoverFlagsUnhealthyServices(t *testing.T) {
	lister := &fakeLister{
		byNamespace: map[string][]ClusterService{
			"blood-bank": {
				{Name: "donor-service", Labels: map[string]string{"service-type": "spring-boot"}, Ports: []int{8080}},
			},
		},
	}
	cfg := testConfig()
	cfg.HealthCheckEnabled = true

	adapter := &Adapter{Client: lister, Prober: &fakeProber{healthy: map[string]bool{}}, Cfg: cfg}
	pass, err := adapter.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if pass.Descriptors[0].Healthy {
		t.Fatalf("expected unhealthy flag when probe fails")
	}
}
