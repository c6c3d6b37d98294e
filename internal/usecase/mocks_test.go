package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/appointment-map-service/internal/domain"
)

type mockCRMRepository struct {
	mock.Mock
}

func (m *mockCRMRepository) GetAppointmentsForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Appointment, error) {
	args := m.Called(ctx, userID, from, to)
	if appts := args.Get(0); appts != nil {
		return appts.([]domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCRMRepository) GetEntityAddress(ctx context.Context, kind domain.RegardingKind, id uuid.UUID) (string, error) {
	args := m.Called(ctx, kind, id)
	return args.String(0), args.Error(1)
}

func (m *mockCRMRepository) UpdateAppointmentState(ctx context.Context, id uuid.UUID, state domain.AppointmentState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

type mockMapboxRepository struct {
	mock.Mock
}

func (m *mockMapboxRepository) ForwardGeocode(ctx context.Context, address string) (*domain.Coordinate, error) {
	args := m.Called(ctx, address)
	if coord := args.Get(0); coord != nil {
		return coord.(*domain.Coordinate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMapboxRepository) GetDrivingRoute(ctx context.Context, waypoints []domain.Coordinate) (*domain.DirectionsResponse, error) {
	args := m.Called(ctx, waypoints)
	if resp := args.Get(0); resp != nil {
		return resp.(*domain.DirectionsResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCacheRepository struct {
	mock.Mock
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// recordingRenderer записывает запросы рендеринга для проверок
type recordingRenderer struct {
	mu          sync.Mutex
	clears      int
	markers     []domain.Marker
	route       *domain.RouteResult
	routeClears int
	viewport    *domain.BoundingBox
}

func (r *recordingRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.markers = nil
	r.route = nil
	r.viewport = nil
}

func (r *recordingRenderer) AddMarker(marker domain.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers, marker)
}

func (r *recordingRenderer) DrawRoute(route domain.RouteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = &route
}

func (r *recordingRenderer) ClearRoute() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = nil
	r.routeClears++
}

func (r *recordingRenderer) FitBounds(box domain.BoundingBox) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = &box
}

func (r *recordingRenderer) Markers() []domain.Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Marker, len(r.markers))
	copy(out, r.markers)
	return out
}

func (r *recordingRenderer) Route() *domain.RouteResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

func (r *recordingRenderer) Viewport() *domain.BoundingBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

func (r *recordingRenderer) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
