package releaseanalyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

// LatestReleaseSource отдает последний релиз каждого активного репозитория
type LatestReleaseSource interface {
	FindLatestPerRepository(ctx context.Context) ([]*entity.Release, error)
}

type Service struct {
	releases   LatestReleaseSource
	thresholds Thresholds
	now        func() time.Time
}

func NewService(releases LatestReleaseSource, thresholds Thresholds) *Service {
	return &Service{
		releases:   releases,
		thresholds: thresholds,
		now:        time.Now,
	}
}

func (s *Service) EvaluateLatest(ctx context.Context) (*CycleSummary, error) {
	releases, err := s.releases.FindLatestPerRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest releases: %w", err)
	}

	now := s.now()
	summary := &CycleSummary{
		GeneratedAt: now,
		Assessments: make([]ReleaseAssessment, 0, len(releases)),
	}

	for _, release := range releases {
		assessment := s.assess(release, now)
		summary.Assessments = append(summary.Assessments, assessment)

		summary.RepositoriesTotal++
		switch assessment.Severity {
		case SeverityCritical:
			summary.CriticalCount++
		case SeverityWarning:
			summary.WarningCount++
		}

		if age := release.AgeAt(now); age > summary.OldestReleaseAge {
			summary.OldestReleaseAge = age
		}
	}

	return summary, nil
}

func (s *Service) assess(release *entity.Release, now time.Time) ReleaseAssessment {
	assessment := ReleaseAssessment{
		ReleaseID:         release.ID(),
		ReleaseNumber:     release.Number(),
		RiskLevel:         release.RiskLevel().String(),
		ReleaseConfidence: release.ReleaseConfidence(),
		RiskScore:         release.RiskScore(),
		EvaluatedAt:       release.CreatedAt(),
		Severity:          SeverityOK,
	}
	if repo := release.Repository(); repo != nil {
		assessment.Repository = repo.FullName
	}

	escalate := func(to Severity, reason string) {
		if severityRank(to) > severityRank(assessment.Severity) {
			assessment.Severity = to
		}
		assessment.Reasons = append(assessment.Reasons, reason)
	}

	switch release.RiskLevel() {
	case valueobject.RiskCritical:
		escalate(SeverityCritical, "risk level is Critical")
	case valueobject.RiskHigh:
		escalate(SeverityWarning, "risk level is High")
	}

	confidence := release.ReleaseConfidence()
	switch {
	case confidence < s.thresholds.CriticalConfidence:
		escalate(SeverityCritical, fmt.Sprintf("confidence %.2f below %.0f", confidence, s.thresholds.CriticalConfidence))
	case confidence < s.thresholds.WarningConfidence:
		escalate(SeverityWarning, fmt.Sprintf("confidence %.2f below %.0f", confidence, s.thresholds.WarningConfidence))
	}

	if s.thresholds.StaleAfter > 0 && release.AgeAt(now) > s.thresholds.StaleAfter {
		escalate(SeverityWarning, "no release within "+s.thresholds.StaleAfter.String())
	}

	return assessment
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}
