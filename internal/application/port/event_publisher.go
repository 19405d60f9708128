package port

import (
	"context"
	"time"
)

// SubjectReleaseEvaluated субъект события об оцененном релизе
const SubjectReleaseEvaluated = "releases.evaluated"

// ReleaseEvaluatedEvent публикуется после сохранения оцененного релиза
type ReleaseEvaluatedEvent struct {
	ReleaseID         string    `json:"release_id"`
	ReleaseNumber     string    `json:"release_number"`
	Repository        string    `json:"repository"`
	CommitSHA         string    `json:"commit_sha,omitempty"`
	ReleaseConfidence float64   `json:"release_confidence"`
	RiskLevel         string    `json:"risk_level"`
	RiskScore         float64   `json:"risk_score"`
	RiskCount         int       `json:"risk_count"`
	EvaluatedAt       time.Time `json:"evaluated_at"`
}

// EventPublisher defines the interface for publishing events to a message broker
type EventPublisher interface {
	// PublishEvent publishes an event to the specified subject
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	// Close closes the connection to the message broker
	Close() error
}
