package repository

import "github.com/appointment-map-service/internal/domain"

// MapRenderer - коллаборатор рендеринга карты. Ядро не знает,
// как рисуются маркеры и линии; оно лишь шлет запросы на отрисовку.
type MapRenderer interface {
	// Clear убирает все маркеры и геометрию маршрута
	Clear()

	// AddMarker размещает маркер с подписью и данными попапа
	AddMarker(marker domain.Marker)

	// DrawRoute рисует полилинию маршрута со сводкой
	DrawRoute(route domain.RouteResult)

	// ClearRoute убирает только геометрию маршрута
	ClearRoute()

	// FitBounds подгоняет камеру под область с ограничением зума
	FitBounds(box domain.BoundingBox)
}
