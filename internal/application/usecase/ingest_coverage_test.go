package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/domain/service"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/dreschagin/release-confidence/internal/infrastructure/persistence/memory"
	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	store    *memory.Store
	cache    *memoryCache
	events   *recordingPublisher
	metrics  *recordingMetrics
	notifier *recordingNotifier
	archive  *memoryArchive
	log      *memoryWebhookLog
	uc       *IngestCoverageUseCase
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		store:    memory.NewStore(),
		cache:    newMemoryCache(),
		events:   &recordingPublisher{},
		metrics:  &recordingMetrics{},
		notifier: &recordingNotifier{},
		archive:  &memoryArchive{},
		log:      &memoryWebhookLog{},
	}
	f.uc = NewIngestCoverageUseCase(IngestCoverageDeps{
		Releases:     f.store.Releases(),
		Repositories: f.store.Repositories(),
		Archive:      f.archive,
		Events:       f.events,
		Metrics:      f.metrics,
		Notifier:     f.notifier,
		Cache:        f.cache,
		WebhookLog:   f.log,
	}, service.NewReleaseEvaluator(), IngestCoverageConfig{ArchiveKeyPrefix: "payloads"}, logger.New("error"))
	return f
}

func coveragePayload(total float64) dto.CoverageWebhookPayload {
	coverage := `{"total": ` + strconv.FormatFloat(total, 'f', -1, 64) +
		`, "files": {"src/auth/login.ts": {"lines": {"pct": 95}}, "src/auth/register.ts": {"lines": {"pct": 88}}}}`
	return dto.CoverageWebhookPayload{
		Repository: dto.WebhookRepositoryDTO{ID: 42, Name: "api", Owner: "acme", FullName: "acme/api"},
		Release:    dto.WebhookReleaseDTO{Number: "v1.4.0", CommitSHA: "9fceb02", Branch: "main"},
		Coverage:   []byte(coverage),
		Tests:      service.TestResults{Total: 250, Passed: 242, Failed: 8},
	}
}

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIngestCoverageUseCase_Success(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	f.cache.items[port.LatestReleaseCacheKey("acme")] = []byte(`{}`)
	f.cache.items[port.ReleaseListCacheKey("acme", 1, 20)] = []byte(`{}`)

	payload := coveragePayload(87.5)
	res, err := f.uc.Execute(ctx, IngestCoverageCommand{Payload: payload, RawBody: []byte(`{"raw":true}`), DeliveryID: "d-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ReleaseID)
	assert.Equal(t, 96.8, res.Metrics.PassRate)
	assert.Equal(t, valueobject.RiskMedium, res.Metrics.RiskLevel)
	assert.Equal(t, "1h 30m", res.Metrics.TimeToShip)
	require.Len(t, res.Risks, 1)
	assert.Equal(t, service.RiskFailedTests, res.Risks[0].RiskName)
	assert.Equal(t, res.ReleaseID, res.Risks[0].ReleaseID)
	assert.True(t, res.Risks[0].AutoGenerated)

	stored, err := f.store.Releases().FindByID(ctx, res.ReleaseID)
	require.NoError(t, err)
	assert.Equal(t, 87.5, stored.CoveragePercent())
	require.Len(t, stored.Features(), 1)
	assert.Equal(t, "Authentication", stored.Features()[0].Name)
	assert.True(t, strings.HasPrefix(stored.RawPayloadKey(), "payloads/acme/api/"))
	assert.True(t, strings.HasSuffix(stored.RawPayloadKey(), "/v1.4.0_9fceb02.json"))
	assert.Contains(t, f.archive.objects, stored.RawPayloadKey())

	require.Len(t, f.events.subjects, 1)
	assert.Equal(t, port.SubjectReleaseEvaluated, f.events.subjects[0])
	event := f.events.events[0].(port.ReleaseEvaluatedEvent)
	assert.Equal(t, "acme/api", event.Repository)
	assert.Equal(t, "Medium", event.RiskLevel)

	assert.Len(t, f.metrics.metrics, 6)
	require.Len(t, f.notifier.updates, 1)
	assert.Equal(t, "acme/api", f.notifier.updates[0].Repository)

	assert.False(t, f.cache.has(port.LatestReleaseCacheKey("acme")))
	assert.False(t, f.cache.has(port.ReleaseListCacheKey("acme", 1, 20)))

	require.Len(t, f.log.deliveries, 1)
	assert.True(t, f.log.deliveries[0].Success)
	assert.Equal(t, "d-1", f.log.deliveries[0].DeliveryID)
	assert.Equal(t, res.ReleaseID, f.log.deliveries[0].ReleaseID)
}

func TestIngestCoverageUseCase_ValidationErrorDoesNotPersist(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	payload := coveragePayload(87.5)
	payload.Coverage = []byte(`{"total": 140}`)

	res, err := f.uc.Execute(ctx, IngestCoverageCommand{Payload: payload})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	count, err := f.store.Releases().CountByOwner(ctx, "acme")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.events.events)
	assert.Empty(t, f.notifier.updates)

	require.Len(t, f.log.deliveries, 1)
	assert.False(t, f.log.deliveries[0].Success)
	assert.Contains(t, f.log.deliveries[0].ErrorMessage, "coverage")
}

func TestIngestCoverageUseCase_MalformedCoverage(t *testing.T) {
	f := newIngestFixture()

	payload := coveragePayload(87.5)
	payload.Coverage = []byte(`{"total": `)

	_, err := f.uc.Execute(context.Background(), IngestCoverageCommand{Payload: payload})
	assert.ErrorIs(t, err, dto.ErrInvalidPayload)
}

func TestIngestCoverageUseCase_SideEffectFailuresAreNotSurfaced(t *testing.T) {
	f := newIngestFixture()
	f.events.err = errors.New("nats down")
	f.archive.err = errors.New("s3 down")

	res, err := f.uc.Execute(context.Background(), IngestCoverageCommand{Payload: coveragePayload(92), RawBody: []byte(`{}`)})
	require.NoError(t, err)

	stored, err := f.store.Releases().FindByID(context.Background(), res.ReleaseID)
	require.NoError(t, err)
	assert.Empty(t, stored.RawPayloadKey())
	assert.Len(t, f.notifier.updates, 1)
}

func TestIngestCoverageUseCase_OptionalDependencies(t *testing.T) {
	store := memory.NewStore()
	uc := NewIngestCoverageUseCase(IngestCoverageDeps{
		Releases:     store.Releases(),
		Repositories: store.Repositories(),
	}, service.NewReleaseEvaluator(), IngestCoverageConfig{}, logger.New("error"))

	res, err := uc.Execute(context.Background(), IngestCoverageCommand{Payload: coveragePayload(95)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ReleaseID)
}

func TestArchiveKeySanitizesSegments(t *testing.T) {
	uc := NewIngestCoverageUseCase(IngestCoverageDeps{}, nil, IngestCoverageConfig{}, logger.New("error"))
	payload := coveragePayload(90)
	payload.Release.Number = "release/2026 03"
	payload.Release.CommitSHA = ""

	key := uc.archiveKey(payload, mustTime("2026-03-05T10:00:00Z"))
	assert.Equal(t, "coverage-payloads/acme/api/2026/03/05/release-2026_03_nosha.json", key)
}
