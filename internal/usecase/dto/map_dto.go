package dto

import (
	"time"

	"github.com/appointment-map-service/internal/domain"
)

// CreateSessionRequest - запрос на открытие сессии виджета
type CreateSessionRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	UserAddress  string `json:"user_address" validate:"required,min=1,max=500"`
	RouteVisible bool   `json:"route_visible"`
	From         string `json:"from" validate:"required"`
	To           string `json:"to" validate:"required"`
}

// UpdateRouteVisibilityRequest - запрос на переключение маршрута
type UpdateRouteVisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// UpdateUserAddressRequest - запрос на смену адреса пользователя
type UpdateUserAddressRequest struct {
	Address string `json:"address" validate:"required,min=1,max=500"`
}

// RefreshRequest - запрос на перечитывание встреч за период
type RefreshRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// UpdateAppointmentStateRequest - запрос на смену статуса встречи
type UpdateAppointmentStateRequest struct {
	State string `json:"state" validate:"required,oneof=scheduled completed canceled"`
}

// SessionResponse - сессия виджета в ответе API
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	UserAddress  string    `json:"user_address"`
	UserLocated  bool      `json:"user_located"`
	RouteVisible bool      `json:"route_visible"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}

// MarkerResponse - маркер остановки в состоянии карты
type MarkerResponse struct {
	Lat   float64          `json:"lat"`
	Lon   float64          `json:"lon"`
	Label string           `json:"label"`
	Popup domain.StopPopup `json:"popup"`
}

// RouteLegResponse - лег маршрута между соседними точками
type RouteLegResponse struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Summary         string  `json:"summary,omitempty"`
}

// RouteResponse - маршрут дня в состоянии карты
type RouteResponse struct {
	DistanceMeters  float64             `json:"distance_meters"`
	DurationSeconds float64             `json:"duration_seconds"`
	Geometry        []domain.Coordinate `json:"geometry"`
	Legs            []RouteLegResponse  `json:"legs"`
}

// ViewportResponse - целевая область камеры
type ViewportResponse struct {
	Bounds  domain.BoundingBox `json:"bounds"`
	MaxZoom int                `json:"max_zoom"`
}

// MapStateResponse - полное состояние карты сессии
type MapStateResponse struct {
	SessionID string            `json:"session_id"`
	Markers   []MarkerResponse  `json:"markers"`
	Route     *RouteResponse    `json:"route,omitempty"`
	Viewport  *ViewportResponse `json:"viewport,omitempty"`
	Total     int               `json:"total"`
	Displayed int               `json:"displayed"`
}

// AppointmentResponse - встреча в ответе API
type AppointmentResponse struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Location       string    `json:"location,omitempty"`
	State          string    `json:"state"`
	RegardingKind  string    `json:"regarding_kind,omitempty"`
	RegardingName  string    `json:"regarding_name,omitempty"`
}

// ToAppointmentResponse конвертирует доменную встречу в DTO
func ToAppointmentResponse(a domain.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:             a.ID.String(),
		Subject:        a.Subject,
		ScheduledStart: a.ScheduledStart,
		ScheduledEnd:   a.ScheduledEnd,
		Location:       a.Location,
		State:          string(a.State),
	}
	if a.Regarding != nil {
		resp.RegardingKind = string(a.Regarding.Kind)
		resp.RegardingName = a.Regarding.Name
	}
	return resp
}

// ToRouteResponse конвертирует результат маршрута в DTO
func ToRouteResponse(route *domain.RouteResult) *RouteResponse {
	if route == nil {
		return nil
	}
	resp := &RouteResponse{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Geometry:        route.Geometry,
		Legs:            make([]RouteLegResponse, 0, len(route.Legs)),
	}
	for _, leg := range route.Legs {
		resp.Legs = append(resp.Legs, RouteLegResponse{
			From:            leg.From,
			To:              leg.To,
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
			Summary:         leg.Summary,
		})
	}
	return resp
}
