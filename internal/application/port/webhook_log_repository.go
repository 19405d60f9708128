package port

import (
	"context"
	"time"
)

// WebhookDelivery запись о доставке webhook и результате ее обработки
type WebhookDelivery struct {
	ID           string    `json:"id"`
	DeliveryID   string    `json:"delivery_id,omitempty"`
	EventType    string    `json:"event_type"`
	Repository   string    `json:"repository"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ReleaseID    string    `json:"release_id,omitempty"`
	PayloadKey   string    `json:"payload_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WebhookDeliveryQuery параметры выборки журнала доставок
type WebhookDeliveryQuery struct {
	Repository string
	Limit      int
	Cursor     string
	From       time.Time
	To         time.Time
}

// WebhookDeliveryPage страница журнала и курсор следующей страницы
type WebhookDeliveryPage struct {
	Items      []WebhookDelivery `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// WebhookLogRepository определяет интерфейс журнала доставок webhook
type WebhookLogRepository interface {
	Put(ctx context.Context, delivery WebhookDelivery) error
	ListByRepository(ctx context.Context, query WebhookDeliveryQuery) (WebhookDeliveryPage, error)
}
