package releaseanalyzer

import "time"

type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ReleaseAssessment оценка последнего релиза одного репозитория
type ReleaseAssessment struct {
	Repository        string    `json:"repository"`
	ReleaseID         string    `json:"release_id"`
	ReleaseNumber     string    `json:"release_number"`
	RiskLevel         string    `json:"risk_level"`
	ReleaseConfidence float64   `json:"release_confidence"`
	RiskScore         float64   `json:"risk_score"`
	EvaluatedAt       time.Time `json:"evaluated_at"`
	Severity          Severity  `json:"severity"`
	Reasons           []string  `json:"reasons,omitempty"`
}

type CycleSummary struct {
	GeneratedAt       time.Time           `json:"generated_at"`
	RepositoriesTotal int                 `json:"repositories_total"`
	CriticalCount     int                 `json:"critical_count"`
	WarningCount      int                 `json:"warning_count"`
	OldestReleaseAge  time.Duration       `json:"oldest_release_age"`
	Assessments       []ReleaseAssessment `json:"assessments"`
}

type Snapshot struct {
	StartedAt           time.Time     `json:"started_at"`
	Interval            time.Duration `json:"interval"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastSummary         *CycleSummary `json:"last_summary,omitempty"`
}
