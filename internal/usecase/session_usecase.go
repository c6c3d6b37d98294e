package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	apperrors "github.com/appointment-map-service/internal/pkg/errors"
	"github.com/appointment-map-service/internal/repository/cache"
	"github.com/appointment-map-service/internal/usecase/dto"
)

// SessionOptions - настройки, с которыми создаются сессии виджета
type SessionOptions struct {
	BatchSize       int
	BatchDelay      time.Duration
	RouteCacheTTL   time.Duration
	MapStateTTL     time.Duration
	AddressPolicy   AddressPolicy
	ViewportPadding float64
	MaxZoom         int
}

// MapSession - живая сессия виджета. Кеши геокодирования и маршрутов
// принадлежат сессии: их время жизни совпадает со временем жизни
// инстанса виджета, общего кеша между сессиями нет.
type MapSession struct {
	ID     uuid.UUID
	UserID uuid.UUID

	mu           sync.Mutex
	userAddress  string
	userLocation *domain.Coordinate
	routeVisible bool
	appointments []domain.Appointment
	from         time.Time
	to           time.Time
	lastResult   SyncResult

	renderer   *StateRenderer
	geocodeUC  *GeocodeUseCase
	controller *SyncController
}

// SessionUseCase управляет жизненным циклом сессий виджета и
// транслирует внешние триггеры в проходы синхронизации карты
type SessionUseCase struct {
	crmRepo    repository.CRMRepository
	mapboxRepo repository.MapboxRepository
	cacheRepo  repository.CacheRepository
	logger     *zap.Logger
	opts       SessionOptions

	mu       sync.RWMutex
	sessions map[uuid.UUID]*MapSession
}

// NewSessionUseCase - создание нового SessionUseCase
func NewSessionUseCase(
	crmRepo repository.CRMRepository,
	mapboxRepo repository.MapboxRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	opts SessionOptions,
) *SessionUseCase {
	return &SessionUseCase{
		crmRepo:    crmRepo,
		mapboxRepo: mapboxRepo,
		cacheRepo:  cacheRepo,
		logger:     logger,
		opts:       opts,
		sessions:   make(map[uuid.UUID]*MapSession),
	}
}

// CreateSession открывает сессию: создает кеши и контроллер сессии,
// геокодирует адрес пользователя, загружает встречи за период и
// выполняет первый проход синхронизации
func (uc *SessionUseCase) CreateSession(
	ctx context.Context,
	userID uuid.UUID,
	userAddress string,
	routeVisible bool,
	from, to time.Time,
) (*MapSession, error) {
	if !from.Before(to) {
		return nil, apperrors.ErrInvalidDateRange
	}

	renderer := NewStateRenderer(uc.opts.MaxZoom)
	geocodeUC := NewGeocodeUseCase(
		uc.mapboxRepo,
		cache.NewGeocodeCache(),
		uc.logger,
		uc.opts.BatchSize,
		uc.opts.BatchDelay,
	)
	routeUC := NewRouteUseCase(
		uc.mapboxRepo,
		cache.NewRouteCache(uc.opts.RouteCacheTTL),
		uc.logger,
	)
	controller := NewSyncController(
		NewAddressUseCase(uc.crmRepo, uc.logger, uc.opts.AddressPolicy),
		geocodeUC,
		NewStopAggregator(uc.logger),
		routeUC,
		renderer,
		uc.logger,
		uc.opts.ViewportPadding,
	)

	session := &MapSession{
		ID:           uuid.New(),
		UserID:       userID,
		userAddress:  userAddress,
		routeVisible: routeVisible,
		from:         from,
		to:           to,
		renderer:     renderer,
		geocodeUC:    geocodeUC,
		controller:   controller,
	}

	if geo := geocodeUC.Resolve(ctx, userAddress); geo.Found {
		session.userLocation = &geo.Coordinate
	} else {
		uc.logger.Warn("User address could not be geocoded",
			zap.String("session_id", session.ID.String()))
	}

	appts, err := uc.crmRepo.GetAppointmentsForUser(ctx, userID, from, to)
	if err != nil {
		uc.logger.Error("Failed to load appointments",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	session.appointments = appts

	uc.mu.Lock()
	uc.sessions[session.ID] = session
	uc.mu.Unlock()

	uc.syncSession(ctx, session)

	uc.logger.Info("Widget session created",
		zap.String("session_id", session.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("appointments", len(appts)))

	return session, nil
}

// GetSession возвращает сессию по идентификатору
func (uc *SessionUseCase) GetSession(id uuid.UUID) (*MapSession, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	session, ok := uc.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

// CloseSession закрывает сессию: отменяет идущий проход, забывает
// сессию вместе с её кешами и чистит кешированное состояние карты
func (uc *SessionUseCase) CloseSession(ctx context.Context, id uuid.UUID) error {
	uc.mu.Lock()
	session, ok := uc.sessions[id]
	if ok {
		delete(uc.sessions, id)
	}
	uc.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}

	session.controller.Cancel()

	if err := uc.cacheRepo.Delete(ctx, cache.MapStateKey(id.String())); err != nil {
		uc.logger.Warn("Failed to drop cached map state",
			zap.String("session_id", id.String()),
			zap.Error(err))
	}

	uc.logger.Info("Widget session closed", zap.String("session_id", id.String()))
	return nil
}

// RefreshAppointments перечитывает встречи за период и запускает проход
func (uc *SessionUseCase) RefreshAppointments(ctx context.Context, id uuid.UUID, from, to time.Time) error {
	if !from.Before(to) {
		return apperrors.ErrInvalidDateRange
	}

	session, err := uc.GetSession(id)
	if err != nil {
		return err
	}

	appts, err := uc.crmRepo.GetAppointmentsForUser(ctx, session.UserID, from, to)
	if err != nil {
		uc.logger.Error("Failed to reload appointments",
			zap.String("session_id", id.String()),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	session.mu.Lock()
	session.appointments = appts
	session.from = from
	session.to = to
	session.mu.Unlock()

	uc.syncSession(ctx, session)
	return nil
}

// SetRouteVisible переключает видимость маршрута и запускает проход
func (uc *SessionUseCase) SetRouteVisible(ctx context.Context, id uuid.UUID, visible bool) error {
	session, err := uc.GetSession(id)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.routeVisible = visible
	session.mu.Unlock()

	uc.syncSession(ctx, session)
	return nil
}

// SetUserAddress меняет адрес пользователя, геокодирует его заново
// и запускает проход
func (uc *SessionUseCase) SetUserAddress(ctx context.Context, id uuid.UUID, address string) error {
	session, err := uc.GetSession(id)
	if err != nil {
		return err
	}

	var location *domain.Coordinate
	if geo := session.geocodeUC.Resolve(ctx, address); geo.Found {
		location = &geo.Coordinate
	} else {
		uc.logger.Warn("New user address could not be geocoded",
			zap.String("session_id", id.String()))
	}

	session.mu.Lock()
	session.userAddress = address
	session.userLocation = location
	session.mu.Unlock()

	uc.syncSession(ctx, session)
	return nil
}

// UpdateAppointmentState меняет статус встречи в CRM и
// пересинхронизирует сессии, в которых встреча отображалась
func (uc *SessionUseCase) UpdateAppointmentState(ctx context.Context, apptID uuid.UUID, state domain.AppointmentState) error {
	if !domain.IsValidAppointmentState(string(state)) {
		return apperrors.ErrInvalidAppointmentState
	}

	if err := uc.crmRepo.UpdateAppointmentState(ctx, apptID, state); err != nil {
		if err == apperrors.ErrAppointmentNotFound {
			return err
		}
		uc.logger.Error("Failed to update appointment state",
			zap.String("appointment_id", apptID.String()),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	for _, session := range uc.sessionsWithAppointment(apptID) {
		if err := uc.reloadSession(ctx, session); err != nil {
			uc.logger.Warn("Failed to resync session after state change",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// RefreshForUser перечитывает встречи всех сессий пользователя.
// Точка входа для воркера, обрабатывающего события изменения встреч.
func (uc *SessionUseCase) RefreshForUser(ctx context.Context, userID uuid.UUID) error {
	uc.mu.RLock()
	var sessions []*MapSession
	for _, session := range uc.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	uc.mu.RUnlock()

	for _, session := range sessions {
		if err := uc.reloadSession(ctx, session); err != nil {
			return err
		}
	}

	uc.logger.Debug("Sessions refreshed for user",
		zap.String("user_id", userID.String()),
		zap.Int("sessions", len(sessions)))

	return nil
}

// SessionInfo возвращает сессию в виде DTO
func (uc *SessionUseCase) SessionInfo(id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := uc.GetSession(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return &dto.SessionResponse{
		SessionID:    session.ID.String(),
		UserID:       session.UserID.String(),
		UserAddress:  session.userAddress,
		UserLocated:  session.userLocation != nil,
		RouteVisible: session.routeVisible,
		From:         session.from,
		To:           session.to,
	}, nil
}

// Appointments возвращает встречи сессии в виде DTO
func (uc *SessionUseCase) Appointments(id uuid.UUID) ([]dto.AppointmentResponse, error) {
	session, err := uc.GetSession(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	resp := make([]dto.AppointmentResponse, 0, len(session.appointments))
	for _, a := range session.appointments {
		resp = append(resp, dto.ToAppointmentResponse(a))
	}
	return resp, nil
}

// MapState возвращает текущее состояние карты сессии. Снимок
// кешируется в Redis на короткий TTL, чтобы переживать частые
// опросы виджета без пересборки ответа.
func (uc *SessionUseCase) MapState(ctx context.Context, id uuid.UUID) (*dto.MapStateResponse, error) {
	session, err := uc.GetSession(id)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.MapStateKey(id.String())
	if data, err := uc.cacheRepo.Get(ctx, cacheKey); err == nil && data != nil {
		var cached dto.MapStateResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		uc.logger.Warn("Corrupted cached map state, rebuilding",
			zap.String("session_id", id.String()))
	}

	resp := uc.buildMapState(session)

	if data, err := json.Marshal(resp); err == nil {
		if err := uc.cacheRepo.Set(ctx, cacheKey, data, uc.opts.MapStateTTL); err != nil {
			uc.logger.Warn("Failed to cache map state",
				zap.String("session_id", id.String()),
				zap.Error(err))
		}
	}

	return resp, nil
}

func (uc *SessionUseCase) buildMapState(session *MapSession) *dto.MapStateResponse {
	snapshot := session.renderer.Snapshot()

	session.mu.Lock()
	result := session.lastResult
	session.mu.Unlock()

	resp := &dto.MapStateResponse{
		SessionID: session.ID.String(),
		Markers:   make([]dto.MarkerResponse, 0, len(snapshot.Markers)),
		Route:     dto.ToRouteResponse(snapshot.Route),
		Total:     result.Total,
		Displayed: result.Displayed,
	}
	for _, m := range snapshot.Markers {
		resp.Markers = append(resp.Markers, dto.MarkerResponse{
			Lat:   m.Position.Lat,
			Lon:   m.Position.Lon,
			Label: m.Label,
			Popup: m.Popup,
		})
	}
	if snapshot.Viewport != nil {
		resp.Viewport = &dto.ViewportResponse{
			Bounds:  snapshot.Viewport.Bounds,
			MaxZoom: snapshot.Viewport.MaxZoom,
		}
	}
	return resp
}

// syncSession выполняет проход синхронизации с текущими данными сессии
// и сбрасывает кешированное состояние карты
func (uc *SessionUseCase) syncSession(ctx context.Context, session *MapSession) {
	session.mu.Lock()
	input := SyncInput{
		Appointments: session.appointments,
		UserLocation: session.userLocation,
		RouteVisible: session.routeVisible,
	}
	session.mu.Unlock()

	result := session.controller.Sync(ctx, input)

	session.mu.Lock()
	session.lastResult = result
	session.mu.Unlock()

	if err := uc.cacheRepo.Delete(ctx, cache.MapStateKey(session.ID.String())); err != nil {
		uc.logger.Warn("Failed to invalidate cached map state",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}

	uc.logger.Debug("Session synchronized",
		zap.String("session_id", session.ID.String()),
		zap.String("displayed", strconv.Itoa(result.Displayed)+"/"+strconv.Itoa(result.Total)))
}

// reloadSession перечитывает встречи сессии за её период и запускает проход
func (uc *SessionUseCase) reloadSession(ctx context.Context, session *MapSession) error {
	session.mu.Lock()
	from, to := session.from, session.to
	session.mu.Unlock()

	appts, err := uc.crmRepo.GetAppointmentsForUser(ctx, session.UserID, from, to)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.appointments = appts
	session.mu.Unlock()

	uc.syncSession(ctx, session)
	return nil
}

func (uc *SessionUseCase) sessionsWithAppointment(apptID uuid.UUID) []*MapSession {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	var matched []*MapSession
	for _, session := range uc.sessions {
		session.mu.Lock()
		for _, a := range session.appointments {
			if a.ID == apptID {
				matched = append(matched, session)
				break
			}
		}
		session.mu.Unlock()
	}
	return matched
}
