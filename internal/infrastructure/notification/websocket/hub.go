package websocket

import (
	"context"
	"sync"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// MessageTypeRelease тип сообщения о новом оцененном релизе
const MessageTypeRelease = "release"

// Hub управляет WebSocket клиентами и рассылает обновления релизов
// Реализует интерфейс port.NotificationService
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *dto.ReleaseUpdateDTO
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger *logger.Logger
}

var _ port.NotificationService = (*Hub)(nil)

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *dto.ReleaseUpdateDTO, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает hub до отмены ctx (запускать в отдельной goroutine)
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "owner", client.Owner(), "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case update := <-h.broadcast:
			delivered := h.deliver(update)
			h.logger.Debug("Release update broadcasted", "repository", update.Repository, "clients", delivered)
		}
	}
}

// deliver рассылает обновление клиентам владельца; клиент без owner получает все
func (h *Hub) deliver(update *dto.ReleaseUpdateDTO) int {
	owner := ""
	if update.Release != nil {
		owner = update.Release.Owner
	}
	msg := Message{Type: MessageTypeRelease, Data: update}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for client := range h.clients {
		if subscribed := client.Owner(); subscribed != "" && subscribed != owner {
			continue
		}
		select {
		case client.send <- msg:
			delivered++
		default:
			// медленный клиент
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("Client channel full, disconnected", "owner", client.Owner())
		}
	}
	return delivered
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register регистрирует нового клиента. После остановки hub возвращает false.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastRelease ставит обновление в очередь рассылки (реализация port.NotificationService)
func (h *Hub) BroadcastRelease(update *dto.ReleaseUpdateDTO) {
	if update == nil {
		return
	}
	select {
	case h.broadcast <- update:
	default:
		h.logger.Warn("Broadcast channel full, dropping release update", "repository", update.Repository)
	}
}

// ClientCount возвращает количество подключенных клиентов (реализация port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
