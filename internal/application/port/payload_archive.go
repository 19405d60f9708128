package port

import "context"

// PayloadArchive хранит исходные webhook payload для разбора инцидентов
type PayloadArchive interface {
	// Archive загружает payload под ключом key
	Archive(ctx context.Context, key string, body []byte) error

	// PresignGet возвращает временную ссылку на скачивание
	PresignGet(ctx context.Context, key string) (string, error)
}
