package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	"github.com/appointment-map-service/internal/repository/cache"
)

// GeocodeUseCase - геокодирование адресов с кешем на время сессии и
// дросселированием пакетных запросов к внешнему сервису
type GeocodeUseCase struct {
	mapboxRepo repository.MapboxRepository
	cache      *cache.GeocodeCache
	logger     *zap.Logger
	batchSize  int
	batchDelay time.Duration
}

// NewGeocodeUseCase - создание нового GeocodeUseCase
func NewGeocodeUseCase(
	mapboxRepo repository.MapboxRepository,
	geocodeCache *cache.GeocodeCache,
	logger *zap.Logger,
	batchSize int,
	batchDelay time.Duration,
) *GeocodeUseCase {
	if batchSize <= 0 {
		batchSize = 6
	}
	return &GeocodeUseCase{
		mapboxRepo: mapboxRepo,
		cache:      geocodeCache,
		logger:     logger,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Resolve разрешает один адрес. Пустой адрес - сразу NotFound без
// запроса и без кеширования. Повторное разрешение того же
// нормализованного адреса сети не касается.
func (uc *GeocodeUseCase) Resolve(ctx context.Context, address string) domain.GeocodeResult {
	result, _ := uc.resolveOne(ctx, address)
	return result
}

// resolveOne возвращает результат и признак отмены. Отмененный lookup
// не кешируется: адрес считается еще не опрошенным.
func (uc *GeocodeUseCase) resolveOne(ctx context.Context, address string) (domain.GeocodeResult, bool) {
	key := cache.NormalizeAddress(address)
	if key == "" {
		return domain.GeocodeNotFound(), false
	}

	if cached, ok := uc.cache.Get(key); ok {
		return cached, false
	}

	coord, err := uc.mapboxRepo.ForwardGeocode(ctx, address)
	if err != nil {
		if isCancellation(ctx, err) {
			uc.logger.Debug("Geocoding cancelled", zap.String("address", key))
			return domain.GeocodeNotFound(), true
		}
		// Сетевые сбои и битые payload кешируются как NotFound,
		// чтобы не повторять неудачный запрос в рамках сессии
		uc.logger.Warn("Geocoding failed, caching negative result",
			zap.String("address", key),
			zap.Error(err))
		uc.cache.Put(key, domain.GeocodeNotFound())
		return domain.GeocodeNotFound(), false
	}

	if coord == nil {
		uc.cache.Put(key, domain.GeocodeNotFound())
		return domain.GeocodeNotFound(), false
	}

	result := domain.GeocodeResult{Coordinate: *coord, Found: true}
	uc.cache.Put(key, result)
	return result, false
}

// ResolveBatch разрешает набор адресов: дедупликация по
// нормализованному ключу, пакеты фиксированного размера строго
// последовательно с паузой между ними, запросы внутри пакета
// параллельно. При отмене оставшиеся адреса отсутствуют в результате.
func (uc *GeocodeUseCase) ResolveBatch(ctx context.Context, addresses []string) map[string]domain.GeocodeResult {
	results := make(map[string]domain.GeocodeResult)

	// Дедупликация с сохранением порядка первого вхождения
	seen := make(map[string]bool)
	unique := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		key := cache.NormalizeAddress(addr)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, addr)
	}

	var mu sync.Mutex

	for start := 0; start < len(unique); start += uc.batchSize {
		// Отмена проверяется перед стартом каждого пакета
		if ctx.Err() != nil {
			uc.logger.Debug("Batch geocoding aborted",
				zap.Int("resolved", len(results)),
				zap.Int("remaining", len(unique)-start))
			return results
		}

		end := start + uc.batchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]

		var wg sync.WaitGroup
		for _, addr := range batch {
			wg.Add(1)
			go func(addr string) {
				defer wg.Done()

				result, cancelled := uc.resolveOne(ctx, addr)
				if cancelled {
					return // адрес остается неразрешенным
				}

				mu.Lock()
				results[cache.NormalizeAddress(addr)] = result
				mu.Unlock()
			}(addr)
		}
		wg.Wait()

		// Пауза между пакетами дросселирует частоту запросов
		if end < len(unique) {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(uc.batchDelay):
			}
		}
	}

	return results
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
