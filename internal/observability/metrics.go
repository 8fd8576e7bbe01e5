package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fire_risk"

// Причины пропуска точек сетки
const (
	SkipNoObservations = "no_observations"
	SkipMissingFeature = "missing_feature"
	SkipScoringFailed  = "scoring_failed"
)

// Metrics - счетчики и гистограммы конвейера оценки риска
type Metrics struct {
	PointsGenerated prometheus.Counter
	PointsOnLand    prometheus.Counter
	PointsScored    prometheus.Counter
	PointsSkipped   *prometheus.CounterVec // labels: reason

	RunsTotal    *prometheus.CounterVec // labels: outcome={success,failed,cancelled}
	RunDuration  prometheus.Histogram
	SnapshotSize prometheus.Gauge
	LastRunTime  prometheus.Gauge
}

// NewMetrics создает метрики и регистрирует их в реестре Prometheus по умолчанию
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PointsGenerated,
		m.PointsOnLand,
		m.PointsScored,
		m.PointsSkipped,
		m.RunsTotal,
		m.RunDuration,
		m.SnapshotSize,
		m.LastRunTime,
	)
	return m
}

// NewMetricsForTesting создает метрики без регистрации, чтобы тесты
// не паниковали с "duplicate metrics collector registration".
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PointsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_generated_total",
			Help:      "Grid points produced for the region.",
		}),
		PointsOnLand: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_on_land_total",
			Help:      "Grid points that passed the land mask.",
		}),
		PointsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_scored_total",
			Help:      "Land points that received a probability.",
		}),
		PointsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_skipped_total",
			Help:      "Land points dropped from a run by reason.",
		}, []string{"reason"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete grid scoring run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SnapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_size",
			Help:      "Number of estimates in the current snapshot.",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last snapshot written.",
		}),
	}
}
