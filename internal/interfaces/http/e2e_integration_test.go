//go:build integration
// +build integration

package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/application/usecase"
	"github.com/dreschagin/release-confidence/internal/domain/service"
	wsInfra "github.com/dreschagin/release-confidence/internal/infrastructure/notification/websocket"
	dynamodbRepo "github.com/dreschagin/release-confidence/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/release-confidence/internal/infrastructure/persistence/postgres"
	s3storage "github.com/dreschagin/release-confidence/internal/infrastructure/storage/s3"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/handler"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
	"github.com/dreschagin/release-confidence/pkg/config"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

type integrationEnv struct {
	db       config.DatabaseConfig
	s3       config.S3Config
	dynamodb config.DynamoDBConfig
}

func loadIntegrationEnv() integrationEnv {
	return integrationEnv{
		db: config.DatabaseConfig{
			Host:         getenv("INTEGRATION_DB_HOST", "localhost"),
			Port:         getenv("INTEGRATION_DB_PORT", "5432"),
			User:         getenv("INTEGRATION_DB_USER", "postgres"),
			Password:     getenv("INTEGRATION_DB_PASSWORD", "postgres"),
			Database:     getenv("INTEGRATION_DB_NAME", "release_confidence"),
			SSLMode:      "disable",
			MaxOpenConns: 5,
			MaxIdleConns: 2,
		},
		s3: config.S3Config{
			Enabled:         true,
			Bucket:          getenv("INTEGRATION_S3_BUCKET", "coverage-payloads-e2e"),
			Region:          getenv("INTEGRATION_S3_REGION", "us-east-1"),
			Endpoint:        getenv("INTEGRATION_S3_ENDPOINT", "http://localhost:9000"),
			AccessKeyID:     getenv("INTEGRATION_S3_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getenv("INTEGRATION_S3_SECRET_KEY", "minioadmin"),
			UsePathStyle:    true,
			KeyPrefix:       "e2e",
			PresignedTTL:    2 * time.Minute,
		},
		dynamodb: config.DynamoDBConfig{
			Enabled:         true,
			TableName:       getenv("INTEGRATION_DYNAMO_TABLE", "webhook_deliveries_e2e"),
			Region:          getenv("INTEGRATION_DYNAMO_REGION", "us-east-1"),
			Endpoint:        getenv("INTEGRATION_DYNAMO_ENDPOINT", "http://localhost:8000"),
			AccessKeyID:     getenv("INTEGRATION_DYNAMO_ACCESS_KEY", "dynamo"),
			SecretAccessKey: getenv("INTEGRATION_DYNAMO_SECRET_KEY", "dynamo"),
			RetentionDays:   1,
		},
	}
}

func TestE2EIntegrationIngestWithPostgresS3AndDynamo(t *testing.T) {
	env := loadIntegrationEnv()
	ctx := context.Background()

	db := connectPostgres(t, env.db)
	cleanupReleases(t, db)

	ensureS3Bucket(t, ctx, env.s3)
	ensureDynamoTable(t, ctx, env.dynamodb)

	archive, err := s3storage.NewPayloadArchive(ctx, env.s3)
	if err != nil {
		t.Fatalf("init s3 archive: %v", err)
	}
	deliveries, err := dynamodbRepo.NewWebhookLogRepository(ctx, env.dynamodb)
	if err != nil {
		t.Fatalf("init dynamodb repo: %v", err)
	}

	server := integrationServer(t, db, archive, deliveries)
	client := server.Client()

	owner := "it-" + time.Now().UTC().Format("150405")
	resp := postCoverage(t, server, coverageBody(owner, "v1.0.0", 87.5))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for ingestion, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	latestResp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/releases/latest", nil, authHeaders(owner))
	if latestResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for latest, got %d", latestResp.StatusCode)
	}
	var latest dto.LatestReleaseResponse
	if err := json.NewDecoder(latestResp.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	latestResp.Body.Close()

	if latest.Metrics.TestCoverage != 87.5 || latest.Release.Owner != owner {
		t.Fatalf("unexpected latest release %+v", latest.Release)
	}
	if !strings.HasPrefix(latest.Release.RawPayloadKey, "e2e/"+owner+"/api/") {
		t.Fatalf("expected archived payload key, got %q", latest.Release.RawPayloadKey)
	}
	if _, err := archive.PresignGet(ctx, latest.Release.RawPayloadKey); err != nil {
		t.Fatalf("presign archived payload: %v", err)
	}

	deliveriesResp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/webhooks/deliveries?repository="+owner+"/api", nil, authHeaders(owner))
	if deliveriesResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for deliveries, got %d", deliveriesResp.StatusCode)
	}
	defer deliveriesResp.Body.Close()

	var page port.WebhookDeliveryPage
	if err := json.NewDecoder(deliveriesResp.Body).Decode(&page); err != nil {
		t.Fatalf("decode deliveries: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ReleaseID != latest.Release.ID {
		t.Fatalf("expected one delivery for the release, got %+v", page.Items)
	}
}

func integrationServer(t *testing.T, db *sql.DB, archive port.PayloadArchive, deliveries port.WebhookLogRepository) *testServer {
	t.Helper()

	log := logger.New("error")
	releases := postgres.NewPostgresReleaseRepository(db)
	repositories := postgres.NewPostgresRepositoryRepository(db)
	risks := postgres.NewPostgresRiskRepository(db)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := wsInfra.NewHub(log)
	go hub.Run(hubCtx)
	t.Cleanup(stopHub)

	ingestUC := usecase.NewIngestCoverageUseCase(usecase.IngestCoverageDeps{
		Releases:     releases,
		Repositories: repositories,
		Archive:      archive,
		Notifier:     hub,
		WebhookLog:   deliveries,
	}, service.NewReleaseEvaluator(), usecase.IngestCoverageConfig{ArchiveKeyPrefix: "e2e"}, log)
	latestUC := usecase.NewGetLatestReleaseUseCase(releases, risks, log)
	authCfg := middleware.AuthConfig{Enabled: true, BearerToken: testToken}

	router := NewRouter(
		Handlers{
			Dashboard:       handler.NewDashboardHandler(latestUC, log),
			WebSocket:       handler.NewWebSocketHandler(hub, []string{testOrigin}, log),
			Webhook:         handler.NewWebhookHandler(ingestUC, log),
			Releases:        handler.NewReleaseAPIHandler(latestUC, usecase.NewListReleasesUseCase(releases, nil, log), usecase.NewGetReleaseDetailUseCase(releases, repositories, risks, archive, log), log),
			Deliveries:      handler.NewDeliveriesAPIHandler(usecase.NewListWebhookDeliveriesUseCase(deliveries), log),
			Auth:            handler.NewAuthAPIHandler(authCfg, log),
			ReleaseAnalyzer: handler.NewReleaseAnalyzerAPIHandler("http://example.invalid", 2*time.Second, log),
		},
		config.SecurityConfig{AllowedOrigins: []string{testOrigin}, AuthEnabled: true, AuthToken: testToken},
		config.WebhookConfig{Secret: testSecret, MaxPayloadBytes: 1 << 20, RateLimitPerMinute: 600},
		db.PingContext,
		nil,
		log,
	)
	t.Cleanup(router.Close)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return &testServer{Server: server, hub: hub}
}

func connectPostgres(t *testing.T, cfg config.DatabaseConfig) *sql.DB {
	t.Helper()
	db, err := postgres.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := postgres.RunMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func cleanupReleases(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE risk_items, releases, repositories"); err != nil {
		t.Fatalf("cleanup releases: %v", err)
	}
}

func staticAWSConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
}

func ensureS3Bucket(t *testing.T, ctx context.Context, cfg config.S3Config) {
	t.Helper()
	awsCfg, err := staticAWSConfig(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.BaseEndpoint = &cfg.Endpoint
		options.UsePathStyle = cfg.UsePathStyle
	})
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &cfg.Bucket})
	if err != nil && !isBucketExistsError(err) {
		t.Fatalf("create bucket: %v", err)
	}
}

func isBucketExistsError(err error) bool {
	var alreadyOwned *s3.BucketAlreadyOwnedByYou
	var alreadyExists *s3.BucketAlreadyExists
	if errors.As(err, &alreadyOwned) || errors.As(err, &alreadyExists) {
		return true
	}
	return strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") || strings.Contains(err.Error(), "BucketAlreadyExists")
}

func ensureDynamoTable(t *testing.T, ctx context.Context, cfg config.DynamoDBConfig) {
	t.Helper()
	awsCfg, err := staticAWSConfig(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		t.Fatalf("load dynamo config: %v", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		options.BaseEndpoint = &cfg.Endpoint
	})

	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &cfg.TableName}); err == nil {
		return
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &cfg.TableName,
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: stringPtr("PK"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: stringPtr("SK"), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: stringPtr("PK"), KeyType: ddbtypes.KeyTypeHash},
			{AttributeName: stringPtr("SK"), KeyType: ddbtypes.KeyTypeRange},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		t.Fatalf("create dynamo table: %v", err)
	}
}

func stringPtr(value string) *string {
	return &value
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
