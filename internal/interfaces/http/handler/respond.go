package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
)

// OwnerHeader идентифицирует владельца репозиториев; аутентификация вне этого сервиса
const OwnerHeader = "X-Owner"

// ownerFromRequest берет владельца из заголовка X-Owner или query owner
func ownerFromRequest(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get(OwnerHeader)); owner != "" {
		return owner
	}
	return strings.TrimSpace(r.URL.Query().Get("owner"))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	middleware.WriteJSON(w, status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// queryInt возвращает 0 для пустого значения
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
