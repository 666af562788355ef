package reports

import (
	"errors"
	"time"

	"governance-backend/internal/analysis"
	"governance-backend/internal/compliance"
	"governance-backend/internal/harvest"
)

// ErrNotFound is returned when no report matches a lookup.
var ErrNotFound = errors.New("report not found")

// Report is the atomic unit served to clients. Once published it is
// immutable; a new report supersedes but never deletes prior ones.
type Report struct {
	ID                       string                                 `json:"id"`
	GeneratedAt              time.Time                              `json:"generatedAt"`
	SpecsAnalyzed            int                                    `json:"specsAnalyzed"`
	TotalFields              int                                    `json:"totalFields"`
	Issues                   []analysis.Issue                       `json:"issues"`
	SummaryCounts            map[string]int                         `json:"summaryCounts"`
	ComplianceByService      map[string]float64                     `json:"complianceByService"`
	RecommendationsByService map[string][]compliance.Recommendation `json:"recommendationsByService,omitempty"`
	Harvest                  *harvest.Summary                       `json:"harvest,omitempty"`
	Partial                  bool                                   `json:"partial,omitempty"`
}
