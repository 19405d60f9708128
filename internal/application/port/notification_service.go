package port

import "github.com/dreschagin/release-confidence/internal/application/dto"

// NotificationService определяет интерфейс для отправки уведомлений (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// BroadcastRelease отправляет метрики нового релиза всем подключенным клиентам
	BroadcastRelease(update *dto.ReleaseUpdateDTO)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
