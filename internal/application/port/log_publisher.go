package port

import (
	"context"
	"time"
)

// LogLevel уровень записи во внешнем журнале
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry структурированная запись для внешней системы логов
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Fields    map[string]interface{}
}

// LogPublisher отправляет записи журнала во внешнюю систему (CloudWatch Logs).
// Подключается к pkg/logger как Sink.
type LogPublisher interface {
	Publish(ctx context.Context, entry LogEntry) error

	// PublishBatch учитывает ограничения пакета внешней системы
	PublishBatch(ctx context.Context, entries []LogEntry) error

	// Flush вызывается при graceful shutdown
	Flush(ctx context.Context) error
}
