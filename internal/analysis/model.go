package analysis

// Issue severities, ordered from most to least urgent.
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
	SeverityInfo     = "info"
)

// Issue categories.
const (
	CategoryNaming       = "naming"
	CategoryType         = "type"
	CategoryRequiredness = "requiredness"
	CategoryStructure    = "structure"
)

// FieldObservation is one leaf field seen while walking a parsed document's
// schema tree. Observations are derived, never mutated; each cycle
// regenerates them from scratch.
type FieldObservation struct {
	FieldPath       string `json:"fieldPath"`
	LeafName        string `json:"leafName"`
	DeclaredType    string `json:"declaredType"`
	Required        bool   `json:"required"`
	ServiceName     string `json:"serviceName"`
	DocumentVersion int    `json:"documentVersion"`
}

// Issue is one cross-service inconsistency found by the analyzer.
type Issue struct {
	ID             string             `json:"id"`
	Severity       string             `json:"severity"`
	Category       string             `json:"category"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	AffectedFields []FieldObservation `json:"affectedFields"`
	Recommendation string             `json:"recommendation"`
}

// Result is the analyzer's output for one cycle.
type Result struct {
	Observations []FieldObservation `json:"-"`
	Issues       []Issue            `json:"issues"`
	TotalFields  int                `json:"totalFields"`
}

// SummaryCounts returns the exact severity histogram of issues.
func SummaryCounts(issues []Issue) map[string]int {
	counts := map[string]int{
		SeverityCritical: 0,
		SeverityMajor:    0,
		SeverityMinor:    0,
		SeverityInfo:     0,
	}
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}

func severityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	default:
		return 3
	}
}
