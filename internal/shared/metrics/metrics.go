package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful cycles and fetches.
	OutcomeSuccess = "success"
	// OutcomeError labels failed cycles and fetches.
	OutcomeError = "error"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "governance",
			Name:      "harvest_cycles_total",
			Help:      "Total number of harvest cycles run, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	cycleDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "governance",
			Name:      "harvest_cycle_seconds",
			Help:      "Harvest cycle latency in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	specFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "governance",
			Name:      "spec_fetches_total",
			Help:      "Total number of spec fetch attempts, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	discoveredServices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "governance",
			Name:      "discovered_services",
			Help:      "Number of services matched by the last discovery pass.",
		},
	)

	complianceScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "governance",
			Name:      "compliance_score",
			Help:      "Latest compliance score per service, in [0,100].",
		},
		[]string{"service"},
	)
)

// Register attaches governance collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		cyclesTotal,
		cycleDurationSeconds,
		specFetchesTotal,
		discoveredServices,
		complianceScore,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCycle records a cycle duration and outcome label.
func ObserveCycle(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	cyclesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	cycleDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetch records a spec fetch outcome.
func ObserveFetch(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	specFetchesTotal.WithLabelValues(label).Inc()
}

// SetDiscoveredServices records the size of the last discovery pass.
func SetDiscoveredServices(count int) {
	discoveredServices.Set(float64(count))
}

// SetComplianceScore records the latest compliance score for a service.
func SetComplianceScore(service string, score float64) {
	complianceScore.WithLabelValues(service).Set(score)
}
