package discovery

// ServiceDescriptor is one discovered service, normalized for harvesting.
// Descriptors live for a single cycle and are never persisted.
type ServiceDescriptor struct {
	Name               string            `json:"name"`
	Namespace          string            `json:"namespace"`
	Labels             map[string]string `json:"labels"`
	CandidateSpecURL   string            `json:"candidateSpecUrl"`
	HealthURL          string            `json:"healthUrl"`
	MeshSidecarPresent bool              `json:"meshSidecarPresent"`
	Healthy            bool              `json:"healthy"`
}

// Config controls one discovery pass.
type Config struct {
	Namespaces         []string
	LabelSelector      string
	SpecPath           string
	HealthPath         string
	HealthCheckEnabled bool
}

// Pass is the outcome of one discovery run: the matched descriptors plus
// per-namespace failures that were skipped rather than aborting the pass.
type Pass struct {
	Descriptors       []ServiceDescriptor `json:"descriptors"`
	NamespaceFailures map[string]string   `json:"namespaceFailures,omitempty"`
}
