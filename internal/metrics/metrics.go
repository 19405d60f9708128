package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "release_confidence"

const (
	// OutcomeSuccess релиз оценен и сохранен
	OutcomeSuccess = "success"
	// OutcomeRejected payload не прошел валидацию
	OutcomeRejected = "rejected"
	// OutcomeError сбой хранилища или зависимостей
	OutcomeError = "error"
)

var (
	ingestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Coverage webhook deliveries handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	ingestionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_seconds",
			Help:      "Coverage webhook handling latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	releaseConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "release_confidence_percent",
			Help:      "Release confidence of evaluated releases.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100},
		},
		[]string{"risk_level"},
	)

	releaseRiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "release_risk_score",
			Help:      "Risk score of evaluated releases.",
			Buckets:   []float64{5, 10, 15, 20, 30, 40, 50, 75, 100},
		},
	)

	analyzerRepositories = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "repositories",
			Help:      "Repositories by assessment status in the last analyzer run.",
		},
		[]string{"status"},
	)

	analyzerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "runs_total",
			Help:      "Analyzer runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register подключает коллекторы к реестру; повторная регистрация не ошибка
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		ingestionsTotal,
		ingestionDurationSeconds,
		releaseConfidence,
		releaseRiskScore,
		analyzerRepositories,
		analyzerRunsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveIngestion записывает длительность и исход обработки webhook
func ObserveIngestion(duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeSuccess, OutcomeRejected:
	default:
		outcome = OutcomeError
	}
	ingestionsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	ingestionDurationSeconds.Observe(duration.Seconds())
}

// ObserveRelease записывает итоговые оценки релиза
func ObserveRelease(confidence, riskScore float64, riskLevel string) {
	releaseConfidence.WithLabelValues(riskLevel).Observe(confidence)
	releaseRiskScore.Observe(riskScore)
}

// SetAnalyzerSummary выставляет число репозиториев по статусам
func SetAnalyzerSummary(counts map[string]int) {
	analyzerRepositories.Reset()
	for status, n := range counts {
		analyzerRepositories.WithLabelValues(status).Set(float64(n))
	}
}

// ObserveAnalyzerRun считает прогоны анализатора
func ObserveAnalyzerRun(err error) {
	if err != nil {
		analyzerRunsTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	analyzerRunsTotal.WithLabelValues(OutcomeSuccess).Inc()
}
