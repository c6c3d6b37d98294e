package repository

import (
	"context"

	"github.com/appointment-map-service/internal/domain"
)

// MapboxRepository определяет методы для работы с Mapbox API
type MapboxRepository interface {
	// ForwardGeocode разрешает текстовый адрес в координату.
	// nil без ошибки - сервис не нашел результатов.
	ForwardGeocode(ctx context.Context, address string) (*domain.Coordinate, error)

	// GetDrivingRoute строит автомобильный маршрут через waypoints
	// (старт + остановки по порядку) с учетом текущего трафика
	GetDrivingRoute(ctx context.Context, waypoints []domain.Coordinate) (*domain.DirectionsResponse, error)
}
