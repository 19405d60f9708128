package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dreschagin/release-confidence/pkg/logger"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Sign возвращает значение заголовка X-Hub-Signature-256 для тела
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature сравнивает подпись за постоянное время
func VerifySignature(secret string, body []byte, header string) error {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, signaturePrefix) {
		return ErrInvalidSignature
	}

	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// WebhookSignature проверяет HMAC подпись тела. С пустым secret проверка отключена.
// Тело читается целиком и подменяется, чтобы обработчик мог прочитать его снова.
func WebhookSignature(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
					return
				}
				WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
				return
			}
			_ = r.Body.Close()

			if err := VerifySignature(secret, body, r.Header.Get(SignatureHeader)); err != nil {
				log.Warn("Webhook signature rejected",
					"remote_addr", r.RemoteAddr,
					"delivery_id", r.Header.Get("X-GitHub-Delivery"),
				)
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
