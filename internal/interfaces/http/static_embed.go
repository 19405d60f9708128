package http

import "embed"

// staticFiles: стили дашборда и клиент WebSocket обновлений релизов.
//
//go:embed static
var staticFiles embed.FS
