package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

var (
	// ErrInvalidDeliveryQuery параметры запроса журнала некорректны
	ErrInvalidDeliveryQuery = errors.New("invalid delivery query")
	// ErrDeliveryLogDisabled журнал доставок не подключен
	ErrDeliveryLogDisabled = errors.New("webhook delivery log is not configured")
)

type ListWebhookDeliveriesQuery struct {
	Repository string
	Limit      int
	Cursor     string
	From       time.Time
	To         time.Time
}

type ListWebhookDeliveriesUseCase struct {
	repo port.WebhookLogRepository
}

func NewListWebhookDeliveriesUseCase(repo port.WebhookLogRepository) *ListWebhookDeliveriesUseCase {
	return &ListWebhookDeliveriesUseCase{repo: repo}
}

func (uc *ListWebhookDeliveriesUseCase) Execute(ctx context.Context, query ListWebhookDeliveriesQuery) (port.WebhookDeliveryPage, error) {
	if uc.repo == nil {
		return port.WebhookDeliveryPage{}, ErrDeliveryLogDisabled
	}

	repository := strings.TrimSpace(query.Repository)
	if repository == "" || !strings.Contains(repository, "/") {
		return port.WebhookDeliveryPage{}, fmt.Errorf("%w: repository must be owner/name", ErrInvalidDeliveryQuery)
	}

	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return port.WebhookDeliveryPage{}, fmt.Errorf("%w: from must be before to", ErrInvalidDeliveryQuery)
	}

	limit := valueobject.NewPagination(1, query.Limit).Limit()

	page, err := uc.repo.ListByRepository(ctx, port.WebhookDeliveryQuery{
		Repository: repository,
		Limit:      limit,
		Cursor:     strings.TrimSpace(query.Cursor),
		From:       query.From.UTC(),
		To:         query.To.UTC(),
	})
	if err != nil {
		return port.WebhookDeliveryPage{}, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}

	if page.Items == nil {
		page.Items = []port.WebhookDelivery{}
	}

	return page, nil
}
