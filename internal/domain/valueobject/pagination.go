package valueobject

import "math"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// MaxPage ограничивает page так, чтобы Offset не переполнял int
const MaxPage = math.MaxInt/MaxPageLimit + 1

// Pagination представляет нормализованные параметры страницы (Value Object)
// Иммутабельный объект
type Pagination struct {
	page  int
	limit int
}

// NewPagination нормализует параметры: limit по умолчанию 20 и не больше 100,
// page в диапазоне [1, MaxPage]
func NewPagination(page, limit int) Pagination {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	return Pagination{page: page, limit: limit}
}

// Page возвращает номер страницы (с 1)
func (p Pagination) Page() int {
	return p.page
}

// Limit возвращает размер страницы
func (p Pagination) Limit() int {
	return p.limit
}

// Offset возвращает смещение для запроса к хранилищу
func (p Pagination) Offset() int {
	return (p.page - 1) * p.limit
}

// HasMore проверяет, остались ли элементы за текущей страницей
func (p Pagination) HasMore(returned int, total int64) bool {
	return total-int64(returned) > int64(p.Offset())
}
