package port

import (
	"context"
	"time"
)

// ReleaseMetric одно значение метрики релиза для внешней системы мониторинга
type ReleaseMetric struct {
	Name       string
	Value      float64
	Unit       string
	Repository string
	RiskLevel  string
	Timestamp  time.Time
}

// MetricsPublisher defines the interface for publishing release metrics to external observability platforms.
type MetricsPublisher interface {
	// PublishBatch publishes multiple metrics in a single operation.
	// Implementations should handle batching constraints (e.g., CloudWatch's 1000 metrics/request limit).
	PublishBatch(ctx context.Context, metrics []ReleaseMetric) error

	// Flush forces immediate publication of any buffered metrics.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
