package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/appointment-map-service/internal/domain"
)

type routeCacheEntry struct {
	result   domain.RouteResult
	storedAt time.Time
}

// RouteCache - кеш результатов маршрутизации с TTL. Просроченные
// записи не вычищаются активно, а просто считаются промахом.
type RouteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]routeCacheEntry
	now     func() time.Time
}

func NewRouteCache(ttl time.Duration) *RouteCache {
	return &RouteCache{
		ttl:     ttl,
		entries: make(map[string]routeCacheEntry),
		now:     time.Now,
	}
}

// Get возвращает живой результат или промах
func (c *RouteCache) Get(key string) (*domain.RouteResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false // expired, lazy eviction
	}

	result := entry.result
	return &result, true
}

// Put сохраняет результат маршрутизации
func (c *RouteCache) Put(key string, result domain.RouteResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = routeCacheEntry{
		result:   result,
		storedAt: c.now(),
	}
}

// RouteCacheKey строит детерминированный ключ из стартовой позиции и
// упорядоченных координат остановок. Координаты округляются до шести
// знаков (~0.1 м), чтобы шум форматирования не дробил кеш.
func RouteCacheKey(start domain.Coordinate, stops []domain.Coordinate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.6f,%.6f", start.Lat, start.Lon)
	for _, s := range stops {
		fmt.Fprintf(&b, "|%.6f,%.6f", s.Lat, s.Lon)
	}
	return b.String()
}
