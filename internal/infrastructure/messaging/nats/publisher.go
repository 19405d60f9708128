package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/nats-io/nats.go"
)

// StreamName поток JetStream с событиями релизов
const StreamName = "RELEASES"

// NATSPublisher реализует port.EventPublisher для NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

var _ port.EventPublisher = (*NATSPublisher)(nil)

// NewNATSPublisher подключается к NATS и создает поток RELEASES, если его нет
func NewNATSPublisher(natsURL string, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("release-confidence-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, err
	}

	log.Info("Connected to NATS", "url", natsURL, "stream", StreamName)

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{"releases.>"},
		Storage:    nats.FileStorage,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 10 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
	}
	return nil
}

// PublishEvent публикует событие асинхронно. Для ReleaseEvaluatedEvent id релиза
// используется как Nats-Msg-Id, повторная доставка webhook не дублирует событие.
func (p *NATSPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var opts []nats.PubOpt
	if e, ok := event.(port.ReleaseEvaluatedEvent); ok && e.ReleaseID != "" {
		opts = append(opts, nats.MsgId(e.ReleaseID))
	}

	if _, err := p.js.PublishAsync(subject, data, opts...); err != nil {
		p.logger.Error("Failed to publish event", err, "subject", subject)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published", "subject", subject, "size", len(data))

	return nil
}

// Close дожидается подтверждений асинхронных публикаций и закрывает соединение
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}

	p.logger.Info("Closing NATS connection")

	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
		p.logger.Warn("Timed out waiting for pending NATS publishes", "pending", p.js.PublishAsyncPending())
	}

	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
