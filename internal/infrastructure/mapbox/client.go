package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appointment-map-service/internal/config"
	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	"go.uber.org/zap"
)

// Mapbox Directions ограничивает число waypoints одним запросом
const maxWaypoints = 25

type client struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	drivingProfile string
	logger         *zap.Logger
}

// NewMapboxClient создает новый клиент для Mapbox API
func NewMapboxClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.MapboxRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:        cfg.BaseURL,
		accessToken:    cfg.AccessToken,
		drivingProfile: cfg.DrivingProfile,
		logger:         logger,
	}
}

// ForwardGeocode разрешает текстовый адрес в координату через Geocoding API.
// Возвращает nil без ошибки, если сервис не нашел результатов.
func (c *client) ForwardGeocode(ctx context.Context, address string) (*domain.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?limit=1&access_token=%s",
		c.baseURL,
		url.PathEscape(address),
		c.accessToken,
	)

	c.logger.Debug("Calling Mapbox Geocoding API",
		zap.String("address", address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Mapbox Geocoding API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var geoResp domain.GeocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		c.logger.Error("Failed to decode geocoding response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geoResp.Features) == 0 {
		c.logger.Debug("No geocoding results", zap.String("address", address))
		return nil, nil
	}

	coord, ok := geoResp.Features[0].Coordinate()
	if !ok {
		return nil, fmt.Errorf("malformed geocoding feature for address %q", address)
	}

	c.logger.Debug("Geocoding successful",
		zap.String("address", address),
		zap.Float64("lat", coord.Lat),
		zap.Float64("lon", coord.Lon))

	return &coord, nil
}

// GetDrivingRoute строит маршрут через waypoints с учетом трафика.
// Первый waypoint - стартовая позиция, дальше остановки по порядку.
func (c *client) GetDrivingRoute(ctx context.Context, waypoints []domain.Coordinate) (*domain.DirectionsResponse, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("at least two waypoints are required")
	}
	if len(waypoints) > maxWaypoints {
		return nil, fmt.Errorf("waypoints exceed Mapbox limit of %d points", maxWaypoints)
	}

	coordinates := make([]string, len(waypoints))
	for i, wp := range waypoints {
		coordinates[i] = fmt.Sprintf("%f,%f", wp.Lon, wp.Lat)
	}

	reqURL := fmt.Sprintf("%s/directions/v5/%s/%s?geometries=geojson&steps=true&overview=false&access_token=%s",
		c.baseURL,
		c.drivingProfile,
		strings.Join(coordinates, ";"),
		c.accessToken,
	)

	c.logger.Debug("Calling Mapbox Directions API",
		zap.Int("waypoints_count", len(waypoints)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Mapbox Directions API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var dirResp domain.DirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dirResp); err != nil {
		c.logger.Error("Failed to decode directions response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if dirResp.Code != "Ok" {
		c.logger.Error("Mapbox Directions API returned non-OK code",
			zap.String("code", dirResp.Code))
		return nil, fmt.Errorf("mapbox API returned code: %s", dirResp.Code)
	}

	c.logger.Debug("Mapbox Directions API call successful",
		zap.Int("routes_count", len(dirResp.Routes)))

	return &dirResp, nil
}
