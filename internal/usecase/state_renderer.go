package usecase

import (
	"sync"

	"github.com/appointment-map-service/internal/domain"
)

// ViewportState - целевая область камеры с ограничением зума,
// чтобы одиночная остановка не давала чрезмерного приближения
type ViewportState struct {
	Bounds  domain.BoundingBox `json:"bounds"`
	MaxZoom int                `json:"max_zoom"`
}

// MapState - снимок отрисованного состояния карты
type MapState struct {
	Markers  []domain.Marker     `json:"markers"`
	Route    *domain.RouteResult `json:"route,omitempty"`
	Viewport *ViewportState      `json:"viewport,omitempty"`
}

// StateRenderer - серверная реализация коллаборатора рендеринга:
// запросы на отрисовку проецируются в состояние сессии, которое
// браузерный виджет забирает по HTTP
type StateRenderer struct {
	mu      sync.Mutex
	maxZoom int
	state   MapState
}

// NewStateRenderer - создание нового StateRenderer
func NewStateRenderer(maxZoom int) *StateRenderer {
	return &StateRenderer{maxZoom: maxZoom}
}

func (r *StateRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = MapState{}
}

func (r *StateRenderer) AddMarker(marker domain.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Markers = append(r.state.Markers, marker)
}

func (r *StateRenderer) DrawRoute(route domain.RouteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Route = &route
}

func (r *StateRenderer) ClearRoute() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Route = nil
}

func (r *StateRenderer) FitBounds(box domain.BoundingBox) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Viewport = &ViewportState{
		Bounds:  box,
		MaxZoom: r.maxZoom,
	}
}

// Snapshot возвращает копию текущего состояния
func (r *StateRenderer) Snapshot() MapState {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := MapState{
		Markers: make([]domain.Marker, len(r.state.Markers)),
	}
	copy(snapshot.Markers, r.state.Markers)
	if r.state.Route != nil {
		route := *r.state.Route
		snapshot.Route = &route
	}
	if r.state.Viewport != nil {
		viewport := *r.state.Viewport
		snapshot.Viewport = &viewport
	}
	return snapshot
}
