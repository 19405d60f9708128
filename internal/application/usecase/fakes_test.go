package usecase

import (
	"context"
	"encoding/json"
	"path"
	"sync"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
)

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return port.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.items, key)
		}
	}
	c.deleted = append(c.deleted, pattern)
	return nil
}

func (c *memoryCache) Close() error { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []interface{}
	err      error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, subject string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type recordingMetrics struct {
	mu      sync.Mutex
	metrics []port.ReleaseMetric
}

func (m *recordingMetrics) PublishBatch(_ context.Context, metrics []port.ReleaseMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = append(m.metrics, metrics...)
	return nil
}

func (m *recordingMetrics) Flush(context.Context) error { return nil }

type recordingNotifier struct {
	mu      sync.Mutex
	updates []*dto.ReleaseUpdateDTO
}

func (n *recordingNotifier) BroadcastRelease(update *dto.ReleaseUpdateDTO) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
}

func (n *recordingNotifier) ClientCount() int { return 0 }

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (a *memoryArchive) Archive(_ context.Context, key string, body []byte) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.objects == nil {
		a.objects = make(map[string][]byte)
	}
	a.objects[key] = body
	return nil
}

func (a *memoryArchive) PresignGet(_ context.Context, key string) (string, error) {
	return "https://archive.example.com/" + key, nil
}

type memoryWebhookLog struct {
	mu         sync.Mutex
	deliveries []port.WebhookDelivery
	lastQuery  port.WebhookDeliveryQuery
}

func (l *memoryWebhookLog) Put(_ context.Context, delivery port.WebhookDelivery) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliveries = append(l.deliveries, delivery)
	return nil
}

func (l *memoryWebhookLog) ListByRepository(_ context.Context, query port.WebhookDeliveryQuery) (port.WebhookDeliveryPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastQuery = query
	items := make([]port.WebhookDelivery, 0)
	for _, d := range l.deliveries {
		if d.Repository == query.Repository {
			items = append(items, d)
		}
	}
	if len(items) > query.Limit {
		items = items[:query.Limit]
	}
	return port.WebhookDeliveryPage{Items: items}, nil
}
