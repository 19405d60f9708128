package releaseanalyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/release-confidence/internal/metrics"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// cycleTimeout ограничивает один прогон оценки
const cycleTimeout = 5 * time.Second

// Runner периодически оценивает последние релизы и хранит итог последнего прогона
type Runner struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	// cycleMu не дает ручному запуску пересечься с плановым
	cycleMu sync.Mutex

	stateMu  sync.RWMutex
	state    Snapshot
	failures int
}

func NewRunner(service *Service, log *logger.Logger, interval time.Duration) *Runner {
	return &Runner{
		service:  service,
		log:      log,
		interval: interval,
		state:    Snapshot{StartedAt: time.Now(), Interval: interval},
	}
}

// Start крутит плановые прогоны до отмены ctx
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// ошибка уже в snapshot, следующий тик повторит прогон
			r.log.Warn("Release analyzer will retry on next tick",
				"consecutive_failures", r.Snapshot().ConsecutiveFailures)
		}
	}
}

// RunOnce выполняет один прогон. При ошибке прошлый итог сохраняется.
func (r *Runner) RunOnce(ctx context.Context) (*CycleSummary, error) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	cycleCtx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	summary, err := r.service.EvaluateLatest(cycleCtx)
	metrics.ObserveAnalyzerRun(err)
	if err != nil {
		err = fmt.Errorf("analyzer cycle failed: %w", err)
		r.record(time.Now(), nil, err)
		r.log.Error("Release analyzer cycle failed", err)
		return nil, err
	}

	r.record(time.Now(), summary, nil)
	publishSummary(summary)

	if summary.RepositoriesTotal == 0 {
		r.log.Warn("Release analyzer cycle found no releases")
		return summary, nil
	}
	r.log.Info("Release analyzer cycle completed",
		"repositories_total", summary.RepositoriesTotal,
		"critical_count", summary.CriticalCount,
		"warning_count", summary.WarningCount,
		"oldest_release_age", summary.OldestReleaseAge.String(),
	)
	return summary, nil
}

// Snapshot возвращает копию состояния, безопасную для чтения без блокировки
func (r *Runner) Snapshot() Snapshot {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	out := r.state
	out.ConsecutiveFailures = r.failures
	if r.state.LastSummary != nil {
		summary := *r.state.LastSummary
		summary.Assessments = append([]ReleaseAssessment(nil), r.state.LastSummary.Assessments...)
		out.LastSummary = &summary
	}
	return out
}

func (r *Runner) record(runAt time.Time, summary *CycleSummary, err error) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	r.state.LastRunAt = runAt
	if err != nil {
		r.state.LastError = err.Error()
		r.failures++
		return
	}
	r.state.LastError = ""
	r.state.LastSummary = summary
	r.failures = 0
}

func publishSummary(summary *CycleSummary) {
	metrics.SetAnalyzerSummary(map[string]int{
		string(SeverityOK):       summary.RepositoriesTotal - summary.CriticalCount - summary.WarningCount,
		string(SeverityWarning):  summary.WarningCount,
		string(SeverityCritical): summary.CriticalCount,
	})
}
