package cache

import (
	"strings"
	"sync"

	"github.com/appointment-map-service/internal/domain"
)

// NormalizeAddress приводит адрес к ключу кеша: trim + lowercase
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// GeocodeCache - кеш результатов геокодирования на время жизни одной
// сессии виджета. Отрицательные результаты тоже кешируются, чтобы не
// повторять заведомо неудачные запросы. TTL нет намеренно: в рамках
// сессии адреса считаются стабильными.
type GeocodeCache struct {
	mu      sync.RWMutex
	entries map[string]domain.GeocodeResult
}

func NewGeocodeCache() *GeocodeCache {
	return &GeocodeCache{
		entries: make(map[string]domain.GeocodeResult),
	}
}

// Get возвращает закешированный результат по нормализованному ключу
func (c *GeocodeCache) Get(key string) (domain.GeocodeResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.entries[key]
	return res, ok
}

// Put сохраняет результат (включая отрицательный)
func (c *GeocodeCache) Put(key string, res domain.GeocodeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = res
}

// Invalidate удаляет запись; вызывается только явно
func (c *GeocodeCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len возвращает число записей
func (c *GeocodeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
