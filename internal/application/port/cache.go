package port

import (
	"context"
	"errors"
	"fmt"
)

// ErrCacheMiss возвращается из Get, когда ключ отсутствует
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from cache into dest; ErrCacheMiss when absent
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache with the default TTL
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Close closes the cache connection
	Close() error
}

// LatestReleaseCacheKey ключ кеша последнего релиза владельца
func LatestReleaseCacheKey(owner string) string {
	return fmt.Sprintf("releases:latest:%s", owner)
}

// ReleaseListCacheKey ключ кеша страницы списка релизов
func ReleaseListCacheKey(owner string, page, limit int) string {
	return fmt.Sprintf("releases:list:%s:%d:%d", owner, page, limit)
}

// ReleaseListCachePattern шаблон всех страниц списка релизов владельца
func ReleaseListCachePattern(owner string) string {
	return fmt.Sprintf("releases:list:%s:*", owner)
}
