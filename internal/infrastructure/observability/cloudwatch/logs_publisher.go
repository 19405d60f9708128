package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

const (
	// CloudWatch Logs limits
	maxLogEventsPerRequest = 10000
	maxLogEventSize        = 256000 // 256 KB
	maxPendingEntries      = 10000
)

type cloudWatchLogsAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// LogsPublisherConfig holds configuration for CloudWatch logs publishing.
type LogsPublisherConfig struct {
	LogGroupName    string
	LogStreamName   string
	Region          string
	Endpoint        string // LocalStack
	AccessKeyID     string
	SecretAccessKey string
	BufferSize      int
	FlushInterval   time.Duration
	AutoCreate      bool
}

// LogsPublisher publishes logs to AWS CloudWatch Logs.
// Also serves as logger.Sink: Write only buffers, the background loop ships entries.
type LogsPublisher struct {
	client        cloudWatchLogsAPI
	logGroupName  string
	logStreamName string

	buffer     []port.LogEntry
	bufferSize int
	mu         sync.Mutex

	// serializes PutLogEvents calls, separate from mu so Write never waits on the network
	sendMu        sync.Mutex
	sequenceToken *string

	flushCh     chan struct{}
	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

var (
	_ port.LogPublisher = (*LogsPublisher)(nil)
	_ logger.Sink       = (*LogsPublisher)(nil)
)

// NewLogsPublisher creates a new CloudWatch logs publisher.
func NewLogsPublisher(ctx context.Context, cfg LogsPublisherConfig) (*LogsPublisher, error) {
	if cfg.LogGroupName == "" {
		return nil, fmt.Errorf("log group name is required")
	}
	if cfg.LogStreamName == "" {
		return nil, fmt.Errorf("log stream name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	p := newLogsPublisher(cloudwatchlogs.NewFromConfig(awsCfg), cfg)

	if cfg.AutoCreate {
		if err := p.ensureLogGroupAndStream(ctx); err != nil {
			_ = p.Close(ctx)
			return nil, fmt.Errorf("failed to create log group/stream: %w", err)
		}
	}

	return p, nil
}

func newLogsPublisher(client cloudWatchLogsAPI, cfg LogsPublisherConfig) *LogsPublisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	p := &LogsPublisher{
		client:        client,
		logGroupName:  cfg.LogGroupName,
		logStreamName: cfg.LogStreamName,
		buffer:        make([]port.LogEntry, 0, cfg.BufferSize),
		bufferSize:    cfg.BufferSize,
		flushCh:       make(chan struct{}, 1),
		flushTicker:   time.NewTicker(cfg.FlushInterval),
		stopCh:        make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p
}

// Write реализует logger.Sink
func (p *LogsPublisher) Write(at time.Time, level logger.Level, msg string, fields map[string]interface{}) {
	p.enqueue(port.LogEntry{
		Timestamp: at,
		Level:     port.LogLevel(level.String()),
		Message:   msg,
		Fields:    fields,
	})
}

// Publish buffers a single entry.
func (p *LogsPublisher) Publish(_ context.Context, entry port.LogEntry) error {
	p.enqueue(entry)
	return nil
}

// PublishBatch buffers multiple entries.
func (p *LogsPublisher) PublishBatch(_ context.Context, entries []port.LogEntry) error {
	for _, entry := range entries {
		p.enqueue(entry)
	}
	return nil
}

func (p *LogsPublisher) enqueue(entry port.LogEntry) {
	p.mu.Lock()
	// при недоступном CloudWatch отбрасываем самые старые записи
	if len(p.buffer) >= maxPendingEntries {
		p.buffer = p.buffer[1:]
	}
	p.buffer = append(p.buffer, entry)
	full := len(p.buffer) >= p.bufferSize
	p.mu.Unlock()

	if full {
		select {
		case p.flushCh <- struct{}{}:
		default:
		}
	}
}

// Flush forces immediate publication of all buffered log entries.
func (p *LogsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.buffer
	p.buffer = make([]port.LogEntry, 0, p.bufferSize)
	p.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	if err := p.send(ctx, pending); err != nil {
		p.requeue(pending)
		return err
	}
	return nil
}

// Close stops the background flush goroutine and flushes remaining logs.
func (p *LogsPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	return p.Flush(ctx)
}

func (p *LogsPublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
		case <-p.flushCh:
		case <-p.stopCh:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		// ошибка не логируется через logger: запись вернулась бы в этот же буфер
		_ = p.Flush(ctx)
		cancel()
	}
}

func (p *LogsPublisher) requeue(entries []port.LogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	merged := append(entries, p.buffer...)
	if len(merged) > maxPendingEntries {
		merged = merged[len(merged)-maxPendingEntries:]
	}
	p.buffer = merged
}

func (p *LogsPublisher) send(ctx context.Context, entries []port.LogEntry) error {
	// CloudWatch Logs требует возрастания времени внутри запроса
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	events := make([]types.InputLogEvent, 0, len(entries))
	for _, entry := range entries {
		event, err := convertToLogEvent(entry)
		if err != nil {
			continue
		}
		events = append(events, event)
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	for i := 0; i < len(events); i += maxLogEventsPerRequest {
		end := i + maxLogEventsPerRequest
		if end > len(events) {
			end = len(events)
		}

		if err := p.publishLogEventsWithRetry(ctx, events[i:end]); err != nil {
			return fmt.Errorf("failed to publish chunk: %w", err)
		}
	}

	return nil
}

// publishLogEventsWithRetry publishes log events with retry logic. Caller holds sendMu.
func (p *LogsPublisher) publishLogEventsWithRetry(ctx context.Context, events []types.InputLogEvent) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		output, err := p.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(p.logGroupName),
			LogStreamName: aws.String(p.logStreamName),
			LogEvents:     events,
			SequenceToken: p.sequenceToken,
		})
		if err == nil {
			p.sequenceToken = output.NextSequenceToken
			return nil
		}

		var invalidSeqErr *types.InvalidSequenceTokenException
		if errors.As(err, &invalidSeqErr) {
			p.sequenceToken = invalidSeqErr.ExpectedSequenceToken
			continue
		}

		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// convertToLogEvent converts a LogEntry to a JSON CloudWatch InputLogEvent.
func convertToLogEvent(entry port.LogEntry) (types.InputLogEvent, error) {
	logData := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		"level":     string(entry.Level),
		"message":   entry.Message,
	}

	if len(entry.Fields) > 0 {
		logData["fields"] = entry.Fields
	}

	messageJSON, err := json.Marshal(logData)
	if err != nil {
		return types.InputLogEvent{}, fmt.Errorf("failed to marshal log entry: %w", err)
	}

	message := string(messageJSON)
	if len(message) > maxLogEventSize {
		message = message[:maxLogEventSize-3] + "..."
	}

	return types.InputLogEvent{
		Message:   aws.String(message),
		Timestamp: aws.Int64(entry.Timestamp.UnixMilli()),
	}, nil
}

// ensureLogGroupAndStream creates the log group and stream if they don't exist.
func (p *LogsPublisher) ensureLogGroupAndStream(ctx context.Context) error {
	var alreadyExists *types.ResourceAlreadyExistsException

	_, err := p.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(p.logGroupName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log group: %w", err)
	}

	_, err = p.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(p.logGroupName),
		LogStreamName: aws.String(p.logStreamName),
	})
	if err != nil && !errors.As(err, &alreadyExists) {
		return fmt.Errorf("failed to create log stream: %w", err)
	}

	return nil
}
