package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// AuthAPIHandler вход в дашборд: обменивает bearer token на HttpOnly cookie
type AuthAPIHandler struct {
	authConfig middleware.AuthConfig
	logger     *logger.Logger
}

type authLoginRequest struct {
	Token string `json:"token"`
}

type authStatusResponse struct {
	AuthEnabled   bool   `json:"auth_enabled"`
	Authenticated bool   `json:"authenticated"`
	CookiePresent bool   `json:"cookie_present"`
	Owner         string `json:"owner,omitempty"`
}

func NewAuthAPIHandler(authConfig middleware.AuthConfig, log *logger.Logger) *AuthAPIHandler {
	return &AuthAPIHandler{
		authConfig: authConfig,
		logger:     log,
	}
}

// Login POST /api/v1/auth/login
func (h *AuthAPIHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.authConfig.Enabled {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "auth_enabled": false})
		return
	}

	var req authLoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be {\"token\": \"...\"}")
		return
	}

	token := strings.TrimSpace(req.Token)
	if !middleware.TokenMatches(token, h.authConfig.BearerToken) {
		h.logger.Warn("Auth login failed", "remote_addr", middleware.ClientIP(r))
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	middleware.WriteAuthCookie(w, token, r.TLS != nil)
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "auth_enabled": true})
}

// Logout POST /api/v1/auth/logout
func (h *AuthAPIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAuthCookie(w, r.TLS != nil)
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Status GET /api/v1/auth/status
func (h *AuthAPIHandler) Status(w http.ResponseWriter, r *http.Request) {
	_, cookieErr := r.Cookie(middleware.AuthCookieName)
	middleware.WriteJSON(w, http.StatusOK, authStatusResponse{
		AuthEnabled:   h.authConfig.Enabled,
		Authenticated: middleware.ValidateRequestAuth(r, h.authConfig) == nil,
		CookiePresent: cookieErr == nil,
		Owner:         ownerFromRequest(r),
	})
}
