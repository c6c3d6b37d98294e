package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/repository/cache"
	"github.com/appointment-map-service/internal/usecase"
)

func newRouteUseCase(mapboxRepo *mockMapboxRepository) *usecase.RouteUseCase {
	return usecase.NewRouteUseCase(mapboxRepo, cache.NewRouteCache(5*time.Minute), zap.NewNop())
}

func routeStop(index int, subject string, lat, lon float64) *domain.Stop {
	return &domain.Stop{
		Index:        index,
		Address:      subject + " address",
		Coordinate:   domain.Coordinate{Lat: lat, Lon: lon},
		Appointments: []domain.Appointment{{Subject: subject}},
	}
}

func directionsWithLegs(legs ...domain.DirectionsLeg) *domain.DirectionsResponse {
	var distance, duration float64
	for _, leg := range legs {
		distance += leg.Distance
		duration += leg.Duration
	}
	return &domain.DirectionsResponse{
		Code: "Ok",
		Routes: []domain.DirectionsRoute{{
			Distance: distance,
			Duration: duration,
			Legs:     legs,
		}},
	}
}

func TestRouteUseCase_ComputeRoute_Success(t *testing.T) {
	// Arrange
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{
		routeStop(1, "First visit", 40.71, -74.01),
		routeStop(2, "Second visit", 40.72, -74.02),
	}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(directionsWithLegs(
			domain.DirectionsLeg{Distance: 1200, Duration: 300, Summary: "Main St"},
			domain.DirectionsLeg{Distance: 800, Duration: 200, Summary: "Oak Ave"},
		), nil)

	// Act
	result := uc.ComputeRoute(context.Background(), start, stops)

	// Assert
	require.NotNil(t, result)
	assert.Equal(t, 2000.0, result.DistanceMeters)
	assert.Equal(t, 500.0, result.DurationSeconds)
	require.Len(t, result.Legs, 2)
	assert.Equal(t, "Start", result.Legs[0].From)
	assert.Equal(t, "First visit", result.Legs[0].To)
	assert.Equal(t, "First visit", result.Legs[1].From)
	assert.Equal(t, "Second visit", result.Legs[1].To)

	// Legs are correlated back onto the stops
	require.NotNil(t, stops[0].Leg)
	assert.Equal(t, 1200.0, stops[0].Leg.DistanceMeters)
	require.NotNil(t, stops[1].Leg)
	assert.Equal(t, 800.0, stops[1].Leg.DistanceMeters)
}

func TestRouteUseCase_ComputeRoute_FiltersCoincidentStops(t *testing.T) {
	// Arrange: the first stop sits on the start position
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{
		routeStop(1, "Here already", 40.70002, -74.00003),
		routeStop(2, "Across town", 40.75, -74.05),
	}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.MatchedBy(func(waypoints []domain.Coordinate) bool {
		return len(waypoints) == 2 // start + one remaining stop
	})).Return(directionsWithLegs(
		domain.DirectionsLeg{Distance: 5000, Duration: 900},
	), nil)

	// Act
	result := uc.ComputeRoute(context.Background(), start, stops)

	// Assert
	require.NotNil(t, result)
	assert.Nil(t, stops[0].Leg)
	require.NotNil(t, stops[1].Leg)
	mapboxRepo.AssertExpectations(t)
}

func TestRouteUseCase_ComputeRoute_AllStopsCoincident(t *testing.T) {
	// Arrange
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{routeStop(1, "Same place", 40.70001, -74.00001)}

	// Act
	result := uc.ComputeRoute(context.Background(), start, stops)

	// Assert: nothing to route, service is not called
	assert.Nil(t, result)
	mapboxRepo.AssertNotCalled(t, "GetDrivingRoute")
}

func TestRouteUseCase_ComputeRoute_SecondCallHitsCache(t *testing.T) {
	// Arrange
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{routeStop(1, "First visit", 40.71, -74.01)}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(directionsWithLegs(domain.DirectionsLeg{Distance: 1200, Duration: 300}), nil)

	// Act
	first := uc.ComputeRoute(context.Background(), start, stops)
	second := uc.ComputeRoute(context.Background(), start, stops)

	// Assert: identical input within TTL never reaches the network twice
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.DistanceMeters, second.DistanceMeters)
	mapboxRepo.AssertNumberOfCalls(t, "GetDrivingRoute", 1)
}

func TestRouteUseCase_ComputeRoute_ServiceFailure(t *testing.T) {
	// Arrange
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{routeStop(1, "First visit", 40.71, -74.01)}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(nil, errors.New("network timeout"))

	// Act
	result := uc.ComputeRoute(context.Background(), start, stops)

	// Assert: markers survive without a route
	assert.Nil(t, result)
}

func TestRouteUseCase_ComputeRoute_EmptyRouteList(t *testing.T) {
	// Arrange
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{routeStop(1, "First visit", 40.71, -74.01)}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(&domain.DirectionsResponse{Code: "Ok"}, nil)

	// Act
	result := uc.ComputeRoute(context.Background(), start, stops)

	// Assert
	assert.Nil(t, result)
}

func TestRouteUseCase_ComputeRoute_LegCountMismatch(t *testing.T) {
	// Arrange: two stops but the service returns a single leg
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{
		routeStop(1, "First visit", 40.71, -74.01),
		routeStop(2, "Second visit", 40.72, -74.02),
	}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(directionsWithLegs(domain.DirectionsLeg{Distance: 1200, Duration: 300}), nil)

	// Act
	result := uc.ComputeRoute(context.Background(), start, stops)

	// Assert: correlation would be wrong, so the route is discarded
	assert.Nil(t, result)
	assert.Nil(t, stops[0].Leg)
	assert.Nil(t, stops[1].Leg)
}

func TestRouteUseCase_ComputeRoute_Cancelled(t *testing.T) {
	// Arrange
	mapboxRepo := new(mockMapboxRepository)
	uc := newRouteUseCase(mapboxRepo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := domain.Coordinate{Lat: 40.70, Lon: -74.00}
	stops := []*domain.Stop{routeStop(1, "First visit", 40.71, -74.01)}

	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(nil, context.Canceled)

	// Act
	result := uc.ComputeRoute(ctx, start, stops)

	// Assert
	assert.Nil(t, result)
}
