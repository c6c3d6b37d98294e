package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	"github.com/appointment-map-service/internal/pkg/utils"
	"github.com/appointment-map-service/internal/repository/cache"
)

// coincidentThresholdDeg - порог совпадения остановки со стартовой
// позицией, в градусах по каждой оси (~11 м на экваторе)
const coincidentThresholdDeg = 1e-4

// startLabel - подпись стартовой точки в легах маршрута
const startLabel = "Start"

// RouteUseCase - построение маршрута через остановки дня с кешем
// результатов по содержимому запроса
type RouteUseCase struct {
	mapboxRepo repository.MapboxRepository
	routeCache *cache.RouteCache
	logger     *zap.Logger
}

// NewRouteUseCase - создание нового RouteUseCase
func NewRouteUseCase(
	mapboxRepo repository.MapboxRepository,
	routeCache *cache.RouteCache,
	logger *zap.Logger,
) *RouteUseCase {
	return &RouteUseCase{
		mapboxRepo: mapboxRepo,
		routeCache: routeCache,
		logger:     logger,
	}
}

// ComputeRoute строит маршрут от стартовой позиции через остановки в
// их порядке (хронология от агрегатора авторитетна, переупорядочивания
// нет). Возвращает nil, когда маршрута нет: все остановки совпали со
// стартом, сервис вернул пустой ответ, сетевая ошибка или отмена.
// Леги коррелируются обратно на остановки через поле Stop.Leg.
func (uc *RouteUseCase) ComputeRoute(ctx context.Context, start domain.Coordinate, stops []*domain.Stop) *domain.RouteResult {
	// Остановки, совпадающие со стартом, дали бы вырожденный лег
	filtered := make([]*domain.Stop, 0, len(stops))
	for _, stop := range stops {
		if utils.WithinDegrees(start.Lat, start.Lon, stop.Coordinate.Lat, stop.Coordinate.Lon, coincidentThresholdDeg) {
			uc.logger.Debug("Stop coincides with start position, excluded from route",
				zap.Int("index", stop.Index))
			continue
		}
		filtered = append(filtered, stop)
	}

	if len(filtered) == 0 {
		return nil
	}

	coords := make([]domain.Coordinate, len(filtered))
	for i, stop := range filtered {
		coords[i] = stop.Coordinate
	}

	key := cache.RouteCacheKey(start, coords)
	if cached, ok := uc.routeCache.Get(key); ok {
		uc.logger.Debug("Route cache hit", zap.Int("stops", len(filtered)))
		uc.correlateLegs(cached, filtered)
		return cached
	}

	waypoints := append([]domain.Coordinate{start}, coords...)

	resp, err := uc.mapboxRepo.GetDrivingRoute(ctx, waypoints)
	if err != nil {
		if isCancellation(ctx, err) {
			uc.logger.Debug("Route computation cancelled")
			return nil
		}
		uc.logger.Warn("Route computation failed", zap.Error(err))
		return nil
	}

	if resp == nil || len(resp.Routes) == 0 {
		uc.logger.Warn("Directions service returned no routes",
			zap.Int("stops", len(filtered)))
		return nil
	}

	route := resp.Routes[0]
	if len(route.Legs) != len(filtered) {
		uc.logger.Warn("Directions leg count does not match stops",
			zap.Int("legs", len(route.Legs)),
			zap.Int("stops", len(filtered)))
		return nil
	}

	result := uc.buildResult(route, filtered)

	uc.routeCache.Put(key, *result)
	uc.correlateLegs(result, filtered)

	uc.logger.Info("Route computed",
		zap.Int("stops", len(filtered)),
		zap.Float64("distance_m", result.DistanceMeters),
		zap.Float64("duration_s", result.DurationSeconds))

	return result
}

// buildResult собирает консолидированный результат: геометрия - все
// точки легов подряд, леги подписываются по остановкам
func (uc *RouteUseCase) buildResult(route domain.DirectionsRoute, stops []*domain.Stop) *domain.RouteResult {
	result := &domain.RouteResult{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
		Legs:            make([]domain.RouteLeg, len(route.Legs)),
	}

	from := startLabel
	for i, leg := range route.Legs {
		to := stops[i].Label()
		result.Legs[i] = domain.RouteLeg{
			From:            from,
			To:              to,
			DistanceMeters:  leg.Distance,
			DurationSeconds: leg.Duration,
			Summary:         leg.Summary,
		}
		result.Geometry = append(result.Geometry, leg.Points()...)
		from = to
	}

	return result
}

func (uc *RouteUseCase) correlateLegs(result *domain.RouteResult, stops []*domain.Stop) {
	for i := range stops {
		if i < len(result.Legs) {
			leg := result.Legs[i]
			stops[i].Leg = &leg
		}
	}
}
