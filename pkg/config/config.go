package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	S3         S3Config
	DynamoDB   DynamoDBConfig
	CloudWatch CloudWatchConfig
	Webhook    WebhookConfig
	Analyzer   AnalyzerConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig описывает хранилище релизов. Driver: postgres или memory.
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RunMigrations   bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
}

// S3Config описывает архив сырых webhook payload.
type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	PresignedTTL    time.Duration
}

// DynamoDBConfig описывает журнал доставок webhook.
type DynamoDBConfig struct {
	Enabled         bool
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

type CloudWatchConfig struct {
	MetricsEnabled bool
	LogsEnabled    bool
	Namespace      string
	LogGroup       string
	LogStream      string
	Region         string
	Endpoint       string
	Environment    string
}

type WebhookConfig struct {
	Secret             string
	MaxPayloadBytes    int64
	RateLimitPerMinute int
}

type AnalyzerConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	redisTTL, err := time.ParseDuration(getEnv("REDIS_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	presignedTTL, err := time.ParseDuration(getEnv("S3_PRESIGNED_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_PRESIGNED_TTL: %w", err)
	}

	retentionDays, err := getEnvInt("DYNAMODB_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}

	maxPayloadMB, err := getEnvInt("WEBHOOK_MAX_PAYLOAD_MB", 10)
	if err != nil {
		return nil, err
	}

	rateLimitPerMinute, err := getEnvInt("WEBHOOK_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	analyzerTimeout, err := time.ParseDuration(getEnv("RELEASE_ANALYZER_TIMEOUT", "6s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RELEASE_ANALYZER_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "release_confidence"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
			RunMigrations:   getEnvBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      redisTTL,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT", "releases.evaluated"),
		},
		S3: S3Config{
			Enabled:         getEnvBool("S3_ENABLED", false),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "coverage-payloads"),
			PresignedTTL:    presignedTTL,
		},
		DynamoDB: DynamoDBConfig{
			Enabled:         getEnvBool("DYNAMODB_ENABLED", false),
			TableName:       getEnv("DYNAMODB_TABLE", "webhook_deliveries"),
			Region:          getEnv("DYNAMODB_REGION", "us-east-1"),
			Endpoint:        getEnv("DYNAMODB_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMODB_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMODB_SECRET_ACCESS_KEY", ""),
			RetentionDays:   retentionDays,
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled: getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			LogsEnabled:    getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			Namespace:      getEnv("CLOUDWATCH_NAMESPACE", "ReleaseConfidence/Releases"),
			LogGroup:       getEnv("CLOUDWATCH_LOG_GROUP", "/release-confidence/api"),
			LogStream:      getEnv("CLOUDWATCH_LOG_STREAM", hostnameOr("release-confidence")),
			Region:         getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:       getEnv("CLOUDWATCH_ENDPOINT", ""),
			Environment:    getEnv("ENVIRONMENT", "development"),
		},
		Webhook: WebhookConfig{
			Secret:             getEnv("WEBHOOK_SECRET", ""),
			MaxPayloadBytes:    int64(maxPayloadMB) * 1024 * 1024,
			RateLimitPerMinute: rateLimitPerMinute,
		},
		Analyzer: AnalyzerConfig{
			BaseURL: getEnv("RELEASE_ANALYZER_URL", ""),
			Timeout: analyzerTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.Security.AuthEnabled && c.Security.AuthToken == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if c.S3.Enabled && strings.TrimSpace(c.S3.Bucket) == "" {
		return fmt.Errorf("S3_BUCKET is required when S3_ENABLED=true")
	}
	if c.DynamoDB.Enabled && strings.TrimSpace(c.DynamoDB.TableName) == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required when DYNAMODB_ENABLED=true")
	}
	if c.Webhook.MaxPayloadBytes <= 0 {
		return fmt.Errorf("WEBHOOK_MAX_PAYLOAD_MB must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func hostnameOr(fallback string) string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return fallback
	}
	return name
}
