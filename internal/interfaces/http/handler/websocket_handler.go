package handler

import (
	"net/http"
	"net/url"
	"strings"

	wsInfra "github.com/dreschagin/release-confidence/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/gorilla/websocket"
)

// WebSocketHandler подключает браузер дашборда к рассылке новых релизов.
// Аутентификацию выполняет middleware router.
type WebSocketHandler struct {
	hub            *wsInfra.Hub
	logger         *logger.Logger
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

func NewWebSocketHandler(hub *wsInfra.Hub, allowedOrigins []string, logger *logger.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		logger:         logger,
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			h.allowedOrigins[origin] = struct{}{}
		}
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin сравнивает scheme://host из Origin со списком; "*" разрешает любой
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if _, wildcard := h.allowedOrigins["*"]; wildcard {
		return true
	}

	parsed, err := url.Parse(strings.TrimSpace(r.Header.Get("Origin")))
	if err != nil || parsed.Host == "" {
		return false
	}
	_, ok := h.allowedOrigins[parsed.Scheme+"://"+parsed.Host]
	return ok
}

// HandleConnection GET /ws?owner=<login>
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("WebSocket upgrade failed", "error", err.Error(), "origin", r.Header.Get("Origin"))
		return
	}

	owner := ownerFromRequest(r)
	client := wsInfra.NewClient(h.hub, conn, owner, h.logger)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("WebSocket client connected", "owner", owner)

	go client.WritePump()
	go client.ReadPump()
}
