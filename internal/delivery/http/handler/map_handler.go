package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	apperrors "github.com/appointment-map-service/internal/pkg/errors"
	"github.com/appointment-map-service/internal/pkg/utils"
	"github.com/appointment-map-service/internal/pkg/validator"
	"github.com/appointment-map-service/internal/usecase"
	"github.com/appointment-map-service/internal/usecase/dto"
)

// MapHandler - обработчик состояния карты и встреч сессии
type MapHandler struct {
	sessionUC *usecase.SessionUseCase
	logger    *zap.Logger
}

// NewMapHandler - создание нового MapHandler
func NewMapHandler(sessionUC *usecase.SessionUseCase, logger *zap.Logger) *MapHandler {
	return &MapHandler{
		sessionUC: sessionUC,
		logger:    logger,
	}
}

// GetMapState godoc
// @Summary Текущее состояние карты сессии
// @Description Возвращает маркеры остановок с попапами, маршрут (если включен) и целевую область камеры. Meta содержит счетчики: сколько встреч показано из общего числа.
// @Tags Map
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapStateResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/map [get]
func (h *MapHandler) GetMapState(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	state, err := h.sessionUC.MapState(c.Context(), sessionID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, state, &utils.Meta{
		Total:     state.Total,
		Displayed: state.Displayed,
	})
}

// ListAppointments godoc
// @Summary Встречи сессии
// @Tags Map
// @Produce json
// @Param id path string true "Идентификатор сессии"
// @Success 200 {object} utils.SuccessResponse{data=[]dto.AppointmentResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/appointments [get]
func (h *MapHandler) ListAppointments(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	appts, err := h.sessionUC.Appointments(sessionID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, appts, &utils.Meta{Total: len(appts)})
}

// UpdateAppointmentState godoc
// @Summary Сменить статус встречи
// @Description Обновляет статус встречи в CRM и пересинхронизирует сессии, где встреча отображалась
// @Tags Map
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор встречи"
// @Param request body dto.UpdateAppointmentStateRequest true "Новый статус"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/appointments/{id}/state [patch]
func (h *MapHandler) UpdateAppointmentState(c *fiber.Ctx) error {
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, apperrors.ErrInvalidAppointmentID)
	}

	var req dto.UpdateAppointmentStateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidAppointmentState)
	}

	if err := h.sessionUC.UpdateAppointmentState(c.Context(), apptID, domain.AppointmentState(req.State)); err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{"updated": true}, nil)
}
