package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"governance-backend/internal/shared/metrics"
	"governance-backend/internal/shared/telemetry"
)

const (
	sidecarInjectAnnotation = "sidecar.istio.io/inject"
	sidecarInjectionLabel   = "istio-injection"
	healthPathAnnotation    = "health.check.path"
)

// ServiceLister is the read-only control plane query surface.
type ServiceLister interface {
	ListServices(ctx context.Context, namespace, labelSelector string) ([]ClusterService, error)
}

// HealthProber reports whether a service's health endpoint answers.
type HealthProber interface {
	Probe(ctx context.Context, url string) bool
}

// Adapter discovers services and normalizes them into descriptors. It keeps
// the latest pass for the reporting API.
type Adapter struct {
	Client ServiceLister
	Prober HealthProber
	Cfg    Config

	mu   sync.RWMutex
	last Pass
}

// Discover runs one discovery pass across all configured namespaces. A
// namespace query failure is recorded in the pass and skipped; no matching
// services yields an empty descriptor list, not an error.
func (a *Adapter) Discover(ctx context.Context) (Pass, error) {
	if a.Client == nil {
		return Pass{}, errors.New("control plane client not configured")
	}

	pass := Pass{Descriptors: []ServiceDescriptor{}}
	for _, namespace := range a.Cfg.Namespaces {
		services, err := a.Client.ListServices(ctx, namespace, a.Cfg.LabelSelector)
		if err != nil {
			if pass.NamespaceFailures == nil {
				pass.NamespaceFailures = make(map[string]string)
			}
			pass.NamespaceFailures[namespace] = err.Error()
			telemetry.Warn("discovery.namespace_failed", map[string]any{
				"namespace": namespace,
				"error":     err.Error(),
			})
			continue
		}

		for _, svc := range services {
			if !matchesSelector(svc.Labels, a.Cfg.LabelSelector) {
				continue
			}
			pass.Descriptors = append(pass.Descriptors, a.describe(ctx, svc, namespace))
		}
	}

	sort.Slice(pass.Descriptors, func(i, j int) bool {
		a, b := pass.Descriptors[i], pass.Descriptors[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.Name < b.Name
	})

	a.mu.Lock()
	a.last = pass
	a.mu.Unlock()

	metrics.SetDiscoveredServices(len(pass.Descriptors))
	telemetry.Info("discovery.complete", map[string]any{
		"services":          len(pass.Descriptors),
		"failed_namespaces": len(pass.NamespaceFailures),
	})
	return pass, nil
}

// Last returns the most recent discovery pass.
func (a *Adapter) Last() Pass {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

func (a *Adapter) describe(ctx context.Context, svc ClusterService, namespace string) ServiceDescriptor {
	port := 80
	if len(svc.Ports) > 0 {
		port = svc.Ports[0]
	}
	base := fmt.Sprintf("http://%s.%s.svc.cluster.local:%d", svc.Name, namespace, port)

	healthPath := a.Cfg.HealthPath
	if override := svc.Annotations[healthPathAnnotation]; override != "" {
		healthPath = override
	}

	desc := ServiceDescriptor{
		Name:             svc.Name,
		Namespace:        namespace,
		Labels:           svc.Labels,
		CandidateSpecURL: base + a.Cfg.SpecPath,
		HealthURL:        base + healthPath,
		MeshSidecarPresent: svc.Annotations[sidecarInjectAnnotation] == "true" ||
			svc.Labels[sidecarInjectionLabel] == "enabled",
		Healthy: true,
	}

	if a.Cfg.HealthCheckEnabled && a.Prober != nil {
		desc.Healthy = a.Prober.Probe(ctx, desc.HealthURL)
		if !desc.Healthy {
			telemetry.Warn("discovery.unhealthy_service", map[string]any{
				"service":   desc.Name,
				"namespace": desc.Namespace,
			})
		}
	}
	return desc
}

// matchesSelector re-checks labels client-side so a control plane that
// ignores labelSelector still yields a correctly filtered pass.
func matchesSelector(labels map[string]string, selector string) bool {
	for _, clause := range strings.Split(selector, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if labels[strings.TrimSpace(parts[0])] != strings.TrimSpace(parts[1]) {
			return false
		}
	}
	return true
}
