package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dreschagin/release-confidence/pkg/logger"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthConfig общий bearer token дашборда и API чтения релизов.
// Webhook защищен отдельно подписью HMAC.
type AuthConfig struct {
	Enabled     bool
	BearerToken string
}

const (
	AuthCookieName = "release_confidence_auth_token"

	// AuthCookieTTL срок жизни cookie после входа через форму дашборда
	AuthCookieTTL = 12 * time.Hour
)

// Auth пропускает запрос с верным токеном из заголовка, cookie или ?token=.
func Auth(cfg AuthConfig, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ValidateRequestAuth(r, cfg); err != nil {
				log.Warn("Unauthorized request",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", ClientIP(r),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="release-confidence"`)
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "valid bearer token required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ValidateRequestAuth(r *http.Request, cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if !TokenMatches(ExtractToken(r), cfg.BearerToken) {
		return ErrUnauthorized
	}
	return nil
}

// TokenMatches сравнивает токены за постоянное время; пустой токен не совпадает ни с чем
func TokenMatches(got, want string) bool {
	want = strings.TrimSpace(want)
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func ExtractToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	if c, err := r.Cookie(AuthCookieName); err == nil {
		if value := strings.TrimSpace(c.Value); value != "" {
			return value
		}
	}

	// new WebSocket() в браузере не умеет передавать Authorization
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func WriteAuthCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, authCookie(token, secure, int(AuthCookieTTL.Seconds())))
}

func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, authCookie("", secure, -1))
}

func authCookie(value string, secure bool, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     AuthCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
