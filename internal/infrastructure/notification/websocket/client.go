package websocket

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// должен быть меньше pongWait
	pingPeriod = pongWait * 9 / 10

	// входящие сообщения только управляющие, payload релизов идет от сервера
	maxMessageSize = 512

	// MessageTypeSubscribe переключает клиента на релизы другого владельца
	MessageTypeSubscribe = "subscribe"
)

// inboundMessage сообщение от браузера: {"type":"subscribe","owner":"acme"}
type inboundMessage struct {
	Type  string `json:"type"`
	Owner string `json:"owner"`
}

// Client одно WebSocket соединение дашборда, подписанное на релизы владельца.
// Пустой owner означает подписку на все релизы.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan Message
	mu     sync.RWMutex
	owner  string
	logger *logger.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, owner string, logger *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan Message, 16),
		owner:  strings.TrimSpace(owner),
		logger: logger,
	}
}

// Owner владелец, чьи релизы получает клиент
func (c *Client) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

func (c *Client) setOwner(owner string) {
	c.mu.Lock()
	c.owner = owner
	c.mu.Unlock()
}

// handleInbound применяет управляющее сообщение клиента. Неизвестные типы игнорируются.
func (c *Client) handleInbound(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Debug("Ignoring malformed WebSocket message", "error", err.Error())
		return
	}

	if msg.Type == MessageTypeSubscribe {
		owner := strings.TrimSpace(msg.Owner)
		c.setOwner(owner)
		c.logger.Debug("WebSocket client subscribed", "owner", owner)
	}
}

// ReadPump читает управляющие сообщения и pong; запускается в отдельной goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("WebSocket set read deadline error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", err, "owner", c.Owner())
			}
			return
		}
		if kind == websocket.TextMessage {
			c.handleInbound(raw)
		}
	}
}

// WritePump отправляет обновления релизов и ping; запускается в отдельной goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// hub закрыл канал
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("WebSocket write error", err, "owner", c.Owner())
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, payload)
}
