package repository

import (
	"context"
	"time"

	"github.com/appointment-map-service/internal/domain"
	"github.com/google/uuid"
)

// CRMRepository определяет доступ к записям CRM
type CRMRepository interface {
	// GetAppointmentsForUser возвращает встречи пользователя за период
	GetAppointmentsForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Appointment, error)

	// GetEntityAddress возвращает составной адрес сущности.
	// Пустая строка без ошибки - адрес не найден.
	GetEntityAddress(ctx context.Context, kind domain.RegardingKind, id uuid.UUID) (string, error)

	// UpdateAppointmentState обновляет статус встречи
	UpdateAppointmentState(ctx context.Context, id uuid.UUID, state domain.AppointmentState) error
}
