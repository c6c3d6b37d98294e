package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/appointment-map-service/internal/pkg/errors"
	"github.com/appointment-map-service/internal/pkg/utils"
	"github.com/appointment-map-service/internal/pkg/validator"
	"github.com/appointment-map-service/internal/usecase"
	"github.com/appointment-map-service/internal/usecase/dto"
)

// SessionHandler - обработчик жизненного цикла сессий виджета
type SessionHandler struct {
	sessionUC *usecase.SessionUseCase
	logger    *zap.Logger
}

// NewSessionHandler - создание нового SessionHandler
func NewSessionHandler(sessionUC *usecase.SessionUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUC: sessionUC,
		logger:    logger,
	}
}

// CreateSession godoc
// @Summary Открыть сессию виджета карты
// @Description Создает сессию с кешами на время её жизни, геокодирует адрес пользователя, загружает встречи за период и выполняет первую синхронизацию карты
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Параметры сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return utils.SendError(c, err)
	}

	session, err := h.sessionUC.CreateSession(c.Context(), userID, req.UserAddress, req.RouteVisible, from, to)
	if err != nil {
		return utils.SendError(c, err)
	}

	info, err := h.sessionUC.SessionInfo(session.ID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, info, nil)
}

// GetSession godoc
// @Summary Получить сессию
// @Tags Sessions
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	info, err := h.sessionUC.SessionInfo(sessionID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, info, nil)
}

// CloseSession godoc
// @Summary Закрыть сессию
// @Description Отменяет идущую синхронизацию и освобождает кеши сессии
// @Tags Sessions
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.sessionUC.CloseSession(c.Context(), sessionID); err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{"closed": true}, nil)
}

// RefreshAppointments godoc
// @Summary Перечитать встречи за период
// @Description Заменяет набор встреч сессии целиком и запускает синхронизацию карты
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Param request body dto.RefreshRequest true "Границы периода (RFC3339)"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapStateResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/refresh [post]
func (h *SessionHandler) RefreshAppointments(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.sessionUC.RefreshAppointments(c.Context(), sessionID, from, to); err != nil {
		return utils.SendError(c, err)
	}

	return h.sendMapState(c, sessionID)
}

// SetRouteVisibility godoc
// @Summary Переключить видимость маршрута
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Param request body dto.UpdateRouteVisibilityRequest true "Флаг видимости"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapStateResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/route [patch]
func (h *SessionHandler) SetRouteVisibility(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdateRouteVisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := h.sessionUC.SetRouteVisible(c.Context(), sessionID, *req.Visible); err != nil {
		return utils.SendError(c, err)
	}

	return h.sendMapState(c, sessionID)
}

// SetUserAddress godoc
// @Summary Сменить адрес пользователя
// @Description Геокодирует новый адрес и пересинхронизирует карту относительно него
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Param request body dto.UpdateUserAddressRequest true "Новый адрес"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapStateResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/address [patch]
func (h *SessionHandler) SetUserAddress(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdateUserAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := h.sessionUC.SetUserAddress(c.Context(), sessionID, req.Address); err != nil {
		return utils.SendError(c, err)
	}

	return h.sendMapState(c, sessionID)
}

func (h *SessionHandler) sendMapState(c *fiber.Ctx, sessionID uuid.UUID) error {
	state, err := h.sessionUC.MapState(c.Context(), sessionID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, state, &utils.Meta{
		Total:     state.Total,
		Displayed: state.Displayed,
	})
}

func parseSessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidSessionID
	}
	return id, nil
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange
	}
	return from, to, nil
}
