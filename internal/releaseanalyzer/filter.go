package releaseanalyzer

import "strings"

// FilterSummary возвращает копию сводки только с репозиториями владельца owner
// и уровнем severity; пустые значения фильтр не ограничивают. Счетчики
// пересчитываются по оставшимся оценкам.
func FilterSummary(summary *CycleSummary, owner string, severity Severity) *CycleSummary {
	if summary == nil {
		return nil
	}

	prefix := ""
	if owner = strings.TrimSpace(owner); owner != "" {
		prefix = owner + "/"
	}

	filtered := &CycleSummary{
		GeneratedAt: summary.GeneratedAt,
		Assessments: make([]ReleaseAssessment, 0, len(summary.Assessments)),
	}
	for _, a := range summary.Assessments {
		if prefix != "" && !strings.HasPrefix(a.Repository, prefix) {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}

		filtered.Assessments = append(filtered.Assessments, a)
		filtered.RepositoriesTotal++
		switch a.Severity {
		case SeverityCritical:
			filtered.CriticalCount++
		case SeverityWarning:
			filtered.WarningCount++
		}
		if age := summary.GeneratedAt.Sub(a.EvaluatedAt); age > filtered.OldestReleaseAge {
			filtered.OldestReleaseAge = age
		}
	}
	return filtered
}

// ParseSeverity принимает ok, warning, critical или пустую строку
func ParseSeverity(raw string) (Severity, bool) {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case "", SeverityOK, SeverityWarning, SeverityCritical:
		return s, true
	default:
		return "", false
	}
}
