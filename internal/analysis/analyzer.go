package analysis

import (
	"fmt"
	"sort"
	"strings"

	"governance-backend/internal/shared/telemetry"
	"governance-backend/internal/specdoc"
)

// Analyzer finds cross-service inconsistencies in harvested documents. The
// synonym tables are injected at construction and treated as immutable.
type Analyzer struct {
	Tables *Tables
}

// Analyze walks every valid document, clusters semantically equivalent
// fields across services, and emits issues. Output ordering is fully
// deterministic for identical inputs.
func (a *Analyzer) Analyze(documents []specdoc.Document) Result {
	observations := a.observe(documents)

	var issues []Issue
	issues = append(issues, a.clusterIssues(observations)...)
	issues = append(issues, a.structureIssues(observations)...)
	sortIssues(issues)

	telemetry.Info("analysis.complete", map[string]any{
		"documents":    len(documents),
		"observations": len(observations),
		"issues":       len(issues),
	})

	return Result{
		Observations: observations,
		Issues:       issues,
		TotalFields:  len(observations),
	}
}

// observe emits one FieldObservation per leaf property of every parseable
// document. Invalid documents are excluded from field-level analysis.
func (a *Analyzer) observe(documents []specdoc.Document) []FieldObservation {
	var observations []FieldObservation
	for _, doc := range documents {
		if !doc.ParseValid || doc.Tree == nil {
			continue
		}
		doc.Tree.Walk(func(path, name, declaredType string, required bool) {
			observations = append(observations, FieldObservation{
				FieldPath:       path,
				LeafName:        name,
				DeclaredType:    declaredType,
				Required:        required,
				ServiceName:     doc.ServiceName,
				DocumentVersion: doc.Version,
			})
		})
	}
	return observations
}

// clusterIssues groups observations into concept clusters and emits naming,
// type, and requiredness issues for clusters spanning two or more services.
func (a *Analyzer) clusterIssues(observations []FieldObservation) []Issue {
	clusters := make(map[string][]FieldObservation)
	for _, obs := range observations {
		key := a.Tables.Normalize(obs.LeafName)
		clusters[key] = append(clusters[key], obs)
	}

	concepts := make([]string, 0, len(clusters))
	for concept := range clusters {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	var issues []Issue
	for _, concept := range concepts {
		members := clusters[concept]
		sortObservations(members)

		services := make(map[string]bool)
		spellings := make(map[string]map[string]bool) // spelling -> services using it
		types := make(map[string]bool)
		requiredVaries := false
		for i, obs := range members {
			services[obs.ServiceName] = true
			if spellings[obs.LeafName] == nil {
				spellings[obs.LeafName] = make(map[string]bool)
			}
			spellings[obs.LeafName][obs.ServiceName] = true
			types[obs.DeclaredType] = true
			if i > 0 && obs.Required != members[0].Required {
				requiredVaries = true
			}
		}
		if len(services) < 2 {
			continue
		}
		serviceNames := sortedKeys(services)

		if len(spellings) > 1 {
			issues = append(issues, Issue{
				ID:       issueID(CategoryNaming, concept, serviceNames),
				Severity: SeverityMajor,
				Category: CategoryNaming,
				Title:    fmt.Sprintf("Inconsistent naming for concept %q", concept),
				Description: fmt.Sprintf("Fields %s refer to the same concept but use different spellings across %d services.",
					strings.Join(spellingList(spellings), ", "), len(services)),
				AffectedFields: members,
				Recommendation: fmt.Sprintf("Standardize on %q across all services.", preferredSpelling(spellings)),
			})
		}
		if len(types) > 1 {
			issues = append(issues, Issue{
				ID:       issueID(CategoryType, concept, serviceNames),
				Severity: SeverityCritical,
				Category: CategoryType,
				Title:    fmt.Sprintf("Conflicting types for concept %q", concept),
				Description: fmt.Sprintf("Concept %q is declared as %s in different services; consumers cannot rely on a single representation.",
					concept, strings.Join(sortedKeys(types), " and ")),
				AffectedFields: members,
				Recommendation: fmt.Sprintf("Agree on one declared type for %q and migrate the remaining services.", concept),
			})
		}
		if requiredVaries {
			issues = append(issues, Issue{
				ID:       issueID(CategoryRequiredness, concept, serviceNames),
				Severity: SeverityMinor,
				Category: CategoryRequiredness,
				Title:    fmt.Sprintf("Inconsistent requiredness for concept %q", concept),
				Description: fmt.Sprintf("Concept %q is required in some services and optional in others.",
					concept),
				AffectedFields: members,
				Recommendation: fmt.Sprintf("Decide whether %q is mandatory and align the required sets.", concept),
			})
		}
	}
	return issues
}

// structureIssues flags services that mix naming conventions internally.
func (a *Analyzer) structureIssues(observations []FieldObservation) []Issue {
	byService := make(map[string][]FieldObservation)
	for _, obs := range observations {
		byService[obs.ServiceName] = append(byService[obs.ServiceName], obs)
	}

	serviceNames := make([]string, 0, len(byService))
	for name := range byService {
		serviceNames = append(serviceNames, name)
	}
	sort.Strings(serviceNames)

	var issues []Issue
	for _, service := range serviceNames {
		members := byService[service]
		sortObservations(members)

		conventions := make(map[string]bool)
		for _, obs := range members {
			if conv := classifyConvention(obs.LeafName); conv != "" {
				conventions[conv] = true
			}
		}
		if len(conventions) < 2 {
			continue
		}
		issues = append(issues, Issue{
			ID:       issueID(CategoryStructure, service, nil),
			Severity: SeverityMinor,
			Category: CategoryStructure,
			Title:    fmt.Sprintf("Mixed naming conventions in service %q", service),
			Description: fmt.Sprintf("Service %q uses %s field names in the same API surface.",
				service, strings.Join(sortedKeys(conventions), " and ")),
			AffectedFields: members,
			Recommendation: "Pick one naming convention for the service and rename the outliers.",
		})
	}
	return issues
}

// issueID derives a stable identifier from the category, the concept (or
// service, for structure issues), and the sorted affected services, so
// identical inputs serialize to identical reports.
func issueID(category, concept string, services []string) string {
	parts := append([]string{category, concept}, services...)
	return strings.Join(parts, "_")
}

// preferredSpelling picks the spelling used by the most services, breaking
// ties alphabetically.
func preferredSpelling(spellings map[string]map[string]bool) string {
	best := ""
	bestCount := -1
	for spelling, services := range spellings {
		count := len(services)
		if count > bestCount || (count == bestCount && spelling < best) {
			best = spelling
			bestCount = count
		}
	}
	return best
}

func spellingList(spellings map[string]map[string]bool) []string {
	out := make([]string, 0, len(spellings))
	for spelling := range spellings {
		out = append(out, fmt.Sprintf("%q", spelling))
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortObservations(observations []FieldObservation) {
	sort.Slice(observations, func(i, j int) bool {
		a, b := observations[i], observations[j]
		if a.ServiceName != b.ServiceName {
			return a.ServiceName < b.ServiceName
		}
		if a.FieldPath != b.FieldPath {
			return a.FieldPath < b.FieldPath
		}
		return a.DocumentVersion < b.DocumentVersion
	})
}

// sortIssues orders issues by severity rank, then first affected service,
// then field path, so identical inputs serialize identically.
func sortIssues(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if ra, rb := severityRank(a.Severity), severityRank(b.Severity); ra != rb {
			return ra < rb
		}
		sa, sb := firstService(a), firstService(b)
		if sa != sb {
			return sa < sb
		}
		pa, pb := firstPath(a), firstPath(b)
		if pa != pb {
			return pa < pb
		}
		return a.Category < b.Category
	})
}

func firstService(issue Issue) string {
	if len(issue.AffectedFields) == 0 {
		return ""
	}
	return issue.AffectedFields[0].ServiceName
}

func firstPath(issue Issue) string {
	if len(issue.AffectedFields) == 0 {
		return ""
	}
	return issue.AffectedFields[0].FieldPath
}
