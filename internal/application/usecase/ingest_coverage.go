package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/internal/domain/service"
	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const sideEffectsTimeout = 10 * time.Second

// IngestCoverageCommand одна доставка webhook с покрытием
type IngestCoverageCommand struct {
	Payload    dto.CoverageWebhookPayload
	RawBody    []byte
	DeliveryID string
	EventType  string
}

// IngestCoverageConfig настройки ингестии
type IngestCoverageConfig struct {
	ArchiveKeyPrefix string
	EventSubject     string
}

// IngestCoverageDeps внешние зависимости; все, кроме хранилищ, необязательны
type IngestCoverageDeps struct {
	Releases     repository.ReleaseRepository
	Repositories repository.RepositoryRepository
	Archive      port.PayloadArchive
	Events       port.EventPublisher
	Metrics      port.MetricsPublisher
	Notifier     port.NotificationService
	Cache        port.Cache
	WebhookLog   port.WebhookLogRepository
}

// IngestCoverageUseCase оценивает релиз движком метрик, сохраняет результат
// и рассылает его во внешние системы
type IngestCoverageUseCase struct {
	deps      IngestCoverageDeps
	evaluator *service.ReleaseEvaluator
	config    IngestCoverageConfig
	logger    *logger.Logger
}

func NewIngestCoverageUseCase(
	deps IngestCoverageDeps,
	evaluator *service.ReleaseEvaluator,
	config IngestCoverageConfig,
	log *logger.Logger,
) *IngestCoverageUseCase {
	if config.EventSubject == "" {
		config.EventSubject = port.SubjectReleaseEvaluated
	}
	return &IngestCoverageUseCase{
		deps:      deps,
		evaluator: evaluator,
		config:    config,
		logger:    log,
	}
}

// Execute выполняет ингестию. Ошибка валидации метрик не приводит к сохранению
// частичного релиза.
func (uc *IngestCoverageUseCase) Execute(ctx context.Context, cmd IngestCoverageCommand) (*dto.IngestResultDTO, error) {
	payload := cmd.Payload
	log := uc.logger.With("repository", payload.Repository.FullName, "release", payload.Release.Number)

	release, risks, err := uc.evaluateAndSave(ctx, payload)
	if err != nil {
		log.Error("Release ingestion failed", err)
		uc.recordDelivery(ctx, cmd, "", err)
		return nil, err
	}

	log.Info("Release ingested",
		"release_id", release.ID(),
		"confidence", release.ReleaseConfidence(),
		"risk_level", release.RiskLevel(),
		"risks", len(risks),
	)

	uc.runSideEffects(ctx, cmd, release, risks, log)
	uc.recordDelivery(ctx, cmd, release.ID(), nil)

	return &dto.IngestResultDTO{
		ReleaseID: release.ID(),
		Metrics:   dto.NewReleaseMetrics(release),
		RiskScore: release.RiskScore(),
		Risks:     risks,
	}, nil
}

func (uc *IngestCoverageUseCase) evaluateAndSave(
	ctx context.Context,
	payload dto.CoverageWebhookPayload,
) (*entity.Release, []entity.RiskItem, error) {
	coverage, err := service.DecodeCoverageData(payload.Coverage)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dto.ErrInvalidPayload, err)
	}

	eval, err := uc.evaluator.Evaluate(service.EvaluationInput{
		Coverage: coverage,
		Tests:    payload.Tests,
		Features: payload.Features,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate release: %w", err)
	}

	repo, err := uc.deps.Repositories.Upsert(ctx, &entity.Repository{
		ExternalID:    payload.Repository.ID,
		Name:          payload.Repository.Name,
		Owner:         payload.Repository.Owner,
		FullName:      payload.Repository.FullName,
		DefaultBranch: payload.Release.Branch,
		IsActive:      true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upsert repository: %w", err)
	}

	release, err := entity.NewRelease(repo.ID, entity.ReleaseInfo{
		Number:        payload.Release.Number,
		CommitSHA:     payload.Release.CommitSHA,
		Branch:        payload.Release.Branch,
		WorkflowRunID: payload.Release.WorkflowRunID,
	}, eval)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dto.ErrInvalidPayload, err)
	}
	release.AttachRepository(repo)

	risks := make([]entity.RiskItem, len(eval.Risks))
	for i, risk := range eval.Risks {
		risk.ID = uuid.New().String()
		risk.ReleaseID = release.ID()
		risk.CreatedAt = release.CreatedAt()
		risks[i] = risk
	}

	if err := uc.deps.Releases.Save(ctx, release, risks); err != nil {
		return nil, nil, fmt.Errorf("failed to save release: %w", err)
	}

	return release, risks, nil
}

// runSideEffects выполняется после коммита: ошибки логируются, но не возвращаются
func (uc *IngestCoverageUseCase) runSideEffects(
	ctx context.Context,
	cmd IngestCoverageCommand,
	release *entity.Release,
	risks []entity.RiskItem,
	log *logger.Logger,
) {
	ctx, cancel := context.WithTimeout(ctx, sideEffectsTimeout)
	defer cancel()

	owner := cmd.Payload.Repository.Owner
	var g errgroup.Group

	if uc.deps.Archive != nil && len(cmd.RawBody) > 0 {
		g.Go(func() error {
			key := uc.archiveKey(cmd.Payload, release.CreatedAt())
			if err := uc.deps.Archive.Archive(ctx, key, cmd.RawBody); err != nil {
				log.Warn("Failed to archive payload", "error", err.Error())
				return fmt.Errorf("archive: %w", err)
			}
			if err := uc.deps.Releases.UpdateRawPayloadKey(ctx, release.ID(), key); err != nil {
				log.Warn("Failed to store payload key", "error", err.Error())
				return fmt.Errorf("payload key: %w", err)
			}
			return nil
		})
	}

	if uc.deps.Events != nil {
		g.Go(func() error {
			event := port.ReleaseEvaluatedEvent{
				ReleaseID:         release.ID(),
				ReleaseNumber:     release.Number(),
				Repository:        cmd.Payload.Repository.FullName,
				CommitSHA:         release.Info().CommitSHA,
				ReleaseConfidence: release.ReleaseConfidence(),
				RiskLevel:         release.RiskLevel().String(),
				RiskScore:         release.RiskScore(),
				RiskCount:         len(risks),
				EvaluatedAt:       release.CreatedAt(),
			}
			if err := uc.deps.Events.PublishEvent(ctx, uc.config.EventSubject, event); err != nil {
				log.Warn("Failed to publish release event", "error", err.Error())
				return fmt.Errorf("event: %w", err)
			}
			return nil
		})
	}

	if uc.deps.Metrics != nil {
		g.Go(func() error {
			if err := uc.deps.Metrics.PublishBatch(ctx, BuildReleaseMetrics(release, cmd.Payload.Repository.FullName)); err != nil {
				log.Warn("Failed to publish release metrics", "error", err.Error())
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
	}

	if uc.deps.Cache != nil {
		g.Go(func() error {
			if err := uc.deps.Cache.Delete(ctx, port.LatestReleaseCacheKey(owner)); err != nil {
				log.Warn("Failed to invalidate latest release cache", "error", err.Error())
				return fmt.Errorf("cache: %w", err)
			}
			if err := uc.deps.Cache.DeletePattern(ctx, port.ReleaseListCachePattern(owner)); err != nil {
				log.Warn("Failed to invalidate release list cache", "error", err.Error())
				return fmt.Errorf("cache: %w", err)
			}
			return nil
		})
	}

	if uc.deps.Notifier != nil {
		g.Go(func() error {
			uc.deps.Notifier.BroadcastRelease(dto.NewReleaseUpdateDTO(release, len(risks)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("Release side effects incomplete", "release_id", release.ID(), "error", err.Error())
	}
}

func (uc *IngestCoverageUseCase) recordDelivery(ctx context.Context, cmd IngestCoverageCommand, releaseID string, ingestErr error) {
	if uc.deps.WebhookLog == nil {
		return
	}

	eventType := cmd.EventType
	if eventType == "" {
		eventType = "coverage"
	}

	delivery := port.WebhookDelivery{
		ID:         uuid.New().String(),
		DeliveryID: cmd.DeliveryID,
		EventType:  eventType,
		Repository: cmd.Payload.Repository.FullName,
		Success:    ingestErr == nil,
		ReleaseID:  releaseID,
		CreatedAt:  time.Now().UTC(),
	}
	if ingestErr != nil {
		delivery.ErrorMessage = ingestErr.Error()
	}

	if err := uc.deps.WebhookLog.Put(ctx, delivery); err != nil {
		uc.logger.Warn("Failed to record webhook delivery", "delivery_id", cmd.DeliveryID, "error", err.Error())
	}
}

// archiveKey: <prefix>/<owner>/<repo>/<yyyy>/<mm>/<dd>/<release>_<sha>.json
func (uc *IngestCoverageUseCase) archiveKey(payload dto.CoverageWebhookPayload, at time.Time) string {
	prefix := strings.Trim(uc.config.ArchiveKeyPrefix, "/")
	if prefix == "" {
		prefix = "coverage-payloads"
	}

	sha := payload.Release.CommitSHA
	if sha == "" {
		sha = "nosha"
	}

	return fmt.Sprintf("%s/%s/%s/%s/%s_%s.json",
		prefix,
		keySegment(payload.Repository.Owner),
		keySegment(payload.Repository.Name),
		at.UTC().Format("2006/01/02"),
		keySegment(payload.Release.Number),
		keySegment(sha),
	)
}

var keySegmentReplacer = strings.NewReplacer("/", "-", "\\", "-", " ", "_", "..", "_")

func keySegment(s string) string {
	return keySegmentReplacer.Replace(strings.TrimSpace(s))
}

// BuildReleaseMetrics раскладывает релиз на отдельные метрики для CloudWatch
func BuildReleaseMetrics(release *entity.Release, repository string) []port.ReleaseMetric {
	at := release.CreatedAt()
	level := release.RiskLevel().String()
	passRate := service.CalculatePassRate(release.PassCount(), release.TotalTests())

	metric := func(name string, value float64, unit string) port.ReleaseMetric {
		return port.ReleaseMetric{
			Name:       name,
			Value:      value,
			Unit:       unit,
			Repository: repository,
			RiskLevel:  level,
			Timestamp:  at,
		}
	}

	return []port.ReleaseMetric{
		metric("ReleaseConfidence", release.ReleaseConfidence(), "Percent"),
		metric("RiskScore", release.RiskScore(), "None"),
		metric("TestCoverage", release.CoveragePercent(), "Percent"),
		metric("PassRate", passRate, "Percent"),
		metric("TimeToShipMinutes", float64(release.TimeToShipMinutes()), "Count"),
		metric("FailedTests", float64(release.FailCount()), "Count"),
	}
}
