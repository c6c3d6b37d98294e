package usecase

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	"github.com/appointment-map-service/internal/repository/cache"
)

// SyncInput - входные данные одного прохода синхронизации карты
type SyncInput struct {
	Appointments []domain.Appointment
	UserLocation *domain.Coordinate
	RouteVisible bool
}

// SyncResult - итог прохода: сколько встреч попало на карту из общего числа
type SyncResult struct {
	Total     int
	Displayed int
}

// SyncController - оркестратор полной перерисовки карты. Новый проход
// отменяет предыдущий; проходы сериализованы, так что рендерер никогда
// не видит перемешанных мутаций от двух проходов.
type SyncController struct {
	addressUC       *AddressUseCase
	geocodeUC       *GeocodeUseCase
	aggregator      *StopAggregator
	routeUC         *RouteUseCase
	renderer        repository.MapRenderer
	logger          *zap.Logger
	viewportPadding float64

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	runMu sync.Mutex
}

// NewSyncController - создание нового SyncController
func NewSyncController(
	addressUC *AddressUseCase,
	geocodeUC *GeocodeUseCase,
	aggregator *StopAggregator,
	routeUC *RouteUseCase,
	renderer repository.MapRenderer,
	logger *zap.Logger,
	viewportPadding float64,
) *SyncController {
	return &SyncController{
		addressUC:       addressUC,
		geocodeUC:       geocodeUC,
		aggregator:      aggregator,
		routeUC:         routeUC,
		renderer:        renderer,
		logger:          logger,
		viewportPadding: viewportPadding,
	}
}

// Sync выполняет полный проход синхронизации. Уже идущий проход
// отменяется немедленно; сам проход стартует после его завершения.
// Отмена проверяется перед каждой мутацией рендерера, поэтому
// устаревший проход не оставляет частично отрисованного состояния.
func (c *SyncController) Sync(ctx context.Context, in SyncInput) SyncResult {
	c.cancelMu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	passCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.cancelMu.Unlock()

	c.runMu.Lock()
	defer c.runMu.Unlock()
	defer cancel()

	return c.runPass(passCtx, in)
}

// Cancel отменяет текущий проход, не запуская новый
func (c *SyncController) Cancel() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *SyncController) runPass(ctx context.Context, in SyncInput) SyncResult {
	result := SyncResult{Total: len(in.Appointments)}

	if ctx.Err() != nil {
		return result
	}
	c.renderer.Clear()

	// Без встреч или без позиции пользователя карта остается пустой
	if len(in.Appointments) == 0 || in.UserLocation == nil {
		c.logger.Debug("Sync short-circuit",
			zap.Int("appointments", len(in.Appointments)),
			zap.Bool("has_user_location", in.UserLocation != nil))
		return result
	}

	resolved := c.addressUC.ResolveAll(ctx, in.Appointments)
	if ctx.Err() != nil {
		return result
	}

	stops := c.aggregator.Aggregate(resolved)
	if len(stops) == 0 {
		return result
	}

	addresses := make([]string, len(stops))
	for i, stop := range stops {
		addresses[i] = stop.Address
	}
	coords := c.geocodeUC.ResolveBatch(ctx, addresses)
	if ctx.Err() != nil {
		return result
	}

	// Остановки без координат пропускаются, индексы остальных не меняются
	located := make([]*domain.Stop, 0, len(stops))
	for _, stop := range stops {
		geo, ok := coords[cache.NormalizeAddress(stop.Address)]
		if !ok || !geo.Found {
			c.logger.Debug("Stop skipped, address not geocoded",
				zap.Int("index", stop.Index))
			continue
		}
		stop.Coordinate = geo.Coordinate
		located = append(located, stop)
	}

	if len(located) == 0 {
		c.logger.Info("No stops could be placed on the map",
			zap.Int("appointments", len(in.Appointments)))
		return result
	}

	for _, stop := range located {
		if ctx.Err() != nil {
			return result
		}
		c.renderer.AddMarker(domain.Marker{
			Position: stop.Coordinate,
			Label:    strconv.Itoa(stop.Index),
			Popup:    stop.Popup(),
		})
		result.Displayed += len(stop.Appointments)
	}

	if in.RouteVisible {
		if route := c.routeUC.ComputeRoute(ctx, *in.UserLocation, located); route != nil && ctx.Err() == nil {
			c.renderer.DrawRoute(*route)
		}
	} else {
		c.renderer.ClearRoute()
	}

	if ctx.Err() != nil {
		return result
	}
	box := domain.NewBoundingBox(*in.UserLocation)
	for _, stop := range located {
		box.Extend(stop.Coordinate)
	}
	box.Pad(c.viewportPadding)
	c.renderer.FitBounds(box)

	c.logger.Info("Map synchronized",
		zap.Int("appointments_total", result.Total),
		zap.Int("appointments_displayed", result.Displayed),
		zap.Int("stops", len(located)),
		zap.Bool("route_visible", in.RouteVisible))

	return result
}
