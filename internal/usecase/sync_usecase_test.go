package usecase_test

import (
	"context"
	"sync"
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

func newSyncController(
	crmRepo *mockCRMRepository,
	mapboxRepo *mockMapboxRepository,
	renderer *recordingRenderer,
) *usecase.SyncController {
	logger := zap.NewNop()
	return usecase.NewSyncController(
		usecase.NewAddressUseCase(crmRepo, logger, usecase.PolicyLocationFirst),
		usecase.NewGeocodeUseCase(mapboxRepo, cache.NewGeocodeCache(), logger, 6, 0),
		usecase.NewStopAggregator(logger),
		usecase.NewRouteUseCase(mapboxRepo, cache.NewRouteCache(5*time.Minute), logger),
		renderer,
		logger,
		0.01,
	)
}

func userAt(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: lat, Lon: lon}
}

func TestSyncController_Sync_FullPass(t *testing.T) {
	// Arrange: two appointments share an address, one stands alone
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	input := usecase.SyncInput{
		Appointments: []domain.Appointment{
			appointmentAt("Morning", "10 Main St", base),
			appointmentAt("Afternoon", "10 Main St", base.Add(5*time.Hour)),
			appointmentAt("Lunch", "22 Oak Ave", base.Add(3*time.Hour)),
		},
		UserLocation: userAt(40.70, -74.00),
		RouteVisible: false,
	}

	mapboxRepo.On("ForwardGeocode", mock.Anything, "10 Main St").
		Return(&domain.Coordinate{Lat: 40.71, Lon: -74.01}, nil)
	mapboxRepo.On("ForwardGeocode", mock.Anything, "22 Oak Ave").
		Return(&domain.Coordinate{Lat: 40.72, Lon: -74.02}, nil)

	// Act
	result := ctrl.Sync(context.Background(), input)

	// Assert
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Displayed)

	markers := renderer.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, "1", markers[0].Label)
	assert.Len(t, markers[0].Popup.Appointments, 2)
	assert.Equal(t, "2", markers[1].Label)

	assert.Equal(t, 1, renderer.Clears())
	require.NotNil(t, renderer.Viewport())
	assert.Nil(t, renderer.Route())
	mapboxRepo.AssertNotCalled(t, "GetDrivingRoute")
}

func TestSyncController_Sync_ShortCircuitWithoutAppointments(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	// Act
	result := ctrl.Sync(context.Background(), usecase.SyncInput{
		UserLocation: userAt(40.70, -74.00),
	})

	// Assert: map is cleared and left empty, no network activity
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 1, renderer.Clears())
	assert.Empty(t, renderer.Markers())
	assert.Nil(t, renderer.Viewport())
	mapboxRepo.AssertNotCalled(t, "ForwardGeocode")
}

func TestSyncController_Sync_ShortCircuitWithoutUserLocation(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	input := usecase.SyncInput{
		Appointments: []domain.Appointment{
			appointmentAt("Meeting", "10 Main St", time.Now()),
		},
	}

	// Act
	ctrl.Sync(context.Background(), input)

	// Assert
	assert.Equal(t, 1, renderer.Clears())
	assert.Empty(t, renderer.Markers())
	mapboxRepo.AssertNotCalled(t, "ForwardGeocode")
}

func TestSyncController_Sync_GracefulDegradation(t *testing.T) {
	// Arrange: five addresses, two of them cannot be geocoded
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var appts []domain.Appointment
	for i, addr := range []string{"Addr 1", "Addr 2", "Addr 3", "Addr 4", "Addr 5"} {
		appts = append(appts, appointmentAt(addr, addr, base.Add(time.Duration(i)*time.Hour)))
	}

	mapboxRepo.On("ForwardGeocode", mock.Anything, "Addr 1").
		Return(&domain.Coordinate{Lat: 40.71, Lon: -74.01}, nil)
	mapboxRepo.On("ForwardGeocode", mock.Anything, "Addr 2").Return(nil, nil)
	mapboxRepo.On("ForwardGeocode", mock.Anything, "Addr 3").
		Return(&domain.Coordinate{Lat: 40.73, Lon: -74.03}, nil)
	mapboxRepo.On("ForwardGeocode", mock.Anything, "Addr 4").Return(nil, nil)
	mapboxRepo.On("ForwardGeocode", mock.Anything, "Addr 5").
		Return(&domain.Coordinate{Lat: 40.75, Lon: -74.05}, nil)

	// Act
	result := ctrl.Sync(context.Background(), usecase.SyncInput{
		Appointments: appts,
		UserLocation: userAt(40.70, -74.00),
	})

	// Assert: located stops render, failed ones are skipped,
	// chronological indices keep their assigned values
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.Displayed)

	markers := renderer.Markers()
	require.Len(t, markers, 3)
	assert.Equal(t, "1", markers[0].Label)
	assert.Equal(t, "3", markers[1].Label)
	assert.Equal(t, "5", markers[2].Label)
}

func TestSyncController_Sync_RouteVisible(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	input := usecase.SyncInput{
		Appointments: []domain.Appointment{
			appointmentAt("Visit", "10 Main St", time.Now()),
		},
		UserLocation: userAt(40.70, -74.00),
		RouteVisible: true,
	}

	mapboxRepo.On("ForwardGeocode", mock.Anything, "10 Main St").
		Return(&domain.Coordinate{Lat: 40.71, Lon: -74.01}, nil)
	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(directionsWithLegs(domain.DirectionsLeg{Distance: 1200, Duration: 300}), nil)

	// Act
	ctrl.Sync(context.Background(), input)

	// Assert
	route := renderer.Route()
	require.NotNil(t, route)
	assert.Equal(t, 1200.0, route.DistanceMeters)
}

func TestSyncController_Sync_RouteFailureKeepsMarkers(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	input := usecase.SyncInput{
		Appointments: []domain.Appointment{
			appointmentAt("Visit", "10 Main St", time.Now()),
		},
		UserLocation: userAt(40.70, -74.00),
		RouteVisible: true,
	}

	mapboxRepo.On("ForwardGeocode", mock.Anything, "10 Main St").
		Return(&domain.Coordinate{Lat: 40.71, Lon: -74.01}, nil)
	mapboxRepo.On("GetDrivingRoute", mock.Anything, mock.Anything).
		Return(&domain.DirectionsResponse{Code: "NoRoute"}, nil)

	// Act
	ctrl.Sync(context.Background(), input)

	// Assert
	assert.Len(t, renderer.Markers(), 1)
	assert.Nil(t, renderer.Route())
	assert.NotNil(t, renderer.Viewport())
}

func TestSyncController_Sync_CancelledBeforeStart(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := usecase.SyncInput{
		Appointments: []domain.Appointment{
			appointmentAt("Visit", "10 Main St", time.Now()),
		},
		UserLocation: userAt(40.70, -74.00),
	}

	// Act
	ctrl.Sync(ctx, input)

	// Assert: not a single renderer mutation
	assert.Equal(t, 0, renderer.Clears())
	assert.Empty(t, renderer.Markers())
}

func TestSyncController_Sync_NewPassCancelsPrior(t *testing.T) {
	// Arrange: the first pass blocks inside geocoding until released
	crmRepo := new(mockCRMRepository)
	mapboxRepo := new(mockMapboxRepository)
	renderer := new(recordingRenderer)
	ctrl := newSyncController(crmRepo, mapboxRepo, renderer)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	mapboxRepo.On("ForwardGeocode", mock.Anything, "10 Main St").
		Run(func(mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
		}).
		Return(&domain.Coordinate{Lat: 40.71, Lon: -74.01}, nil)

	firstInput := usecase.SyncInput{
		Appointments: []domain.Appointment{
			appointmentAt("Visit", "10 Main St", time.Now()),
		},
		UserLocation: userAt(40.70, -74.00),
	}

	firstDone := make(chan struct{})
	go func() {
		ctrl.Sync(context.Background(), firstInput)
		close(firstDone)
	}()
	<-started

	// Act: a second trigger arrives while the first pass is in flight
	secondDone := make(chan struct{})
	go func() {
		ctrl.Sync(context.Background(), usecase.SyncInput{})
		close(secondDone)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	<-firstDone
	<-secondDone

	// Assert: the stale pass never placed its marker
	assert.Empty(t, renderer.Markers())
	assert.Equal(t, 2, renderer.Clears())
}
