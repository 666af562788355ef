package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"governance-backend/internal/analysis"
	"governance-backend/internal/compliance"
	"governance-backend/internal/discovery"
	"governance-backend/internal/harvest"
	"governance-backend/internal/reports"
	"governance-backend/internal/shared/metrics"
	"governance-backend/internal/shared/telemetry"
	"governance-backend/internal/specdoc"
)

// Runner executes one full governance cycle: discover services, harvest
// their spec documents, analyze and score them, publish a report.
type Runner struct {
	Adapter   *discovery.Adapter
	Harvester *harvest.Harvester
	Store     *reports.Store
	SpecRepo  specdoc.Repo

	RulesPath    string
	SynonymsPath string
	Deadline     time.Duration
	Retention    time.Duration
}

// RunCycle runs one cycle. Configuration problems (missing rule table or
// synonym file) abort before any fetch; per-service and per-namespace
// failures never do. When the cycle deadline expires mid-harvest a partial
// report is published instead of hanging.
func (r *Runner) RunCycle(ctx context.Context) (reports.Report, error) {
	start := time.Now()

	tables, err := analysis.LoadTables(r.SynonymsPath)
	if err != nil {
		metrics.ObserveCycle(time.Since(start), metrics.OutcomeError)
		return reports.Report{}, fmt.Errorf("cycle aborted: %w", err)
	}
	schema, err := compliance.LoadTargetSchema(r.RulesPath)
	if err != nil {
		metrics.ObserveCycle(time.Since(start), metrics.OutcomeError)
		return reports.Report{}, fmt.Errorf("cycle aborted: %w", err)
	}

	cycleCtx := ctx
	var cancel context.CancelFunc
	if r.Deadline > 0 {
		cycleCtx, cancel = context.WithTimeout(ctx, r.Deadline)
		defer cancel()
	}

	pass, err := r.Adapter.Discover(cycleCtx)
	if err != nil {
		metrics.ObserveCycle(time.Since(start), metrics.OutcomeError)
		return reports.Report{}, fmt.Errorf("discovery failed: %w", err)
	}

	documents, summary := r.Harvester.Harvest(cycleCtx, pass.Descriptors)

	// Analyzer and mapper only read documents, so they run concurrently.
	var (
		wg         sync.WaitGroup
		result     analysis.Result
		scores     map[string]float64
		recommends map[string][]compliance.Recommendation
	)
	analyzer := &analysis.Analyzer{Tables: tables}
	wg.Add(2)
	go func() {
		defer wg.Done()
		result = analyzer.Analyze(documents)
	}()
	go func() {
		defer wg.Done()
		scores = make(map[string]float64, len(documents))
		recommends = make(map[string][]compliance.Recommendation, len(documents))
		for _, doc := range documents {
			score, recs := compliance.MapCompliance(doc, schema)
			scores[doc.ServiceName] = score
			if len(recs) > 0 {
				recommends[doc.ServiceName] = recs
			}
			metrics.SetComplianceScore(doc.ServiceName, score)
		}
	}()
	wg.Wait()

	report := reports.Report{
		GeneratedAt:              time.Now().UTC(),
		SpecsAnalyzed:            len(documents),
		TotalFields:              result.TotalFields,
		Issues:                   result.Issues,
		SummaryCounts:            analysis.SummaryCounts(result.Issues),
		ComplianceByService:      scores,
		RecommendationsByService: recommends,
		Harvest:                  &summary,
		Partial:                  cycleCtx.Err() != nil,
	}

	// Publish on the parent context so a deadline-expired cycle can still
	// land its partial report.
	id, err := r.Store.Publish(ctx, report)
	if err != nil {
		metrics.ObserveCycle(time.Since(start), metrics.OutcomeError)
		return reports.Report{}, fmt.Errorf("publish report: %w", err)
	}
	report.ID = id

	r.prune(ctx)

	metrics.ObserveCycle(time.Since(start), metrics.OutcomeSuccess)
	telemetry.Info("cycle.complete", map[string]any{
		"report_id":   id,
		"duration_ms": time.Since(start).Milliseconds(),
		"specs":       report.SpecsAnalyzed,
		"issues":      len(report.Issues),
		"partial":     report.Partial,
	})
	return report, nil
}

// prune drops superseded spec versions past the retention window. Pruning
// is best effort and never fails the cycle.
func (r *Runner) prune(ctx context.Context) {
	if r.SpecRepo == nil || r.Retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-r.Retention)
	pruned, err := r.SpecRepo.PruneOlderThan(ctx, cutoff)
	if err != nil {
		telemetry.Warn("cycle.prune_failed", map[string]any{"error": err.Error()})
		return
	}
	if pruned > 0 {
		telemetry.Info("cycle.pruned_versions", map[string]any{"count": pruned})
	}
}
