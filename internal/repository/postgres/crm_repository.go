package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	"github.com/appointment-map-service/internal/pkg/errors"
)

type crmRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCRMRepository создает новый экземпляр CRMRepository
func NewCRMRepository(db *DB) repository.CRMRepository {
	return &crmRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type appointmentRow struct {
	ID             uuid.UUID      `db:"id"`
	Subject        string         `db:"subject"`
	ScheduledStart time.Time      `db:"scheduled_start"`
	ScheduledEnd   time.Time      `db:"scheduled_end"`
	Location       sql.NullString `db:"location"`
	Description    sql.NullString `db:"description"`
	RegardingKind  sql.NullString `db:"regarding_kind"`
	RegardingID    uuid.NullUUID  `db:"regarding_id"`
	RegardingName  sql.NullString `db:"regarding_name"`
	OwnerID        uuid.UUID      `db:"owner_id"`
	State          string         `db:"state"`
}

func (row appointmentRow) toDomain() domain.Appointment {
	appt := domain.Appointment{
		ID:             row.ID,
		Subject:        row.Subject,
		ScheduledStart: row.ScheduledStart,
		ScheduledEnd:   row.ScheduledEnd,
		Location:       row.Location.String,
		Description:    row.Description.String,
		OwnerID:        row.OwnerID,
		State:          domain.AppointmentState(row.State),
	}
	// Ссылка на regarding-сущность валидна только при наличии типа и ID;
	// неполные payload уходят в "unresolvable" ветку, а не в panic
	if row.RegardingKind.Valid && row.RegardingID.Valid {
		appt.Regarding = &domain.RegardingRef{
			Kind: domain.RegardingKind(row.RegardingKind.String),
			ID:   row.RegardingID.UUID,
			Name: row.RegardingName.String,
		}
	}
	return appt
}

// GetAppointmentsForUser возвращает встречи пользователя за период
func (r *crmRepository) GetAppointmentsForUser(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]domain.Appointment, error) {
	query := `
		SELECT
			id, subject, scheduled_start, scheduled_end,
			location, description,
			regarding_kind, regarding_id, regarding_name,
			owner_id, state
		FROM appointments
		WHERE owner_id = $1
		  AND scheduled_start >= $2
		  AND scheduled_start < $3
		  AND state <> 'canceled'
		ORDER BY scheduled_start
	`

	var rows []appointmentRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, from, to); err != nil {
		r.logger.Error("Failed to select appointments",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	appointments := make([]domain.Appointment, 0, len(rows))
	for _, row := range rows {
		appointments = append(appointments, row.toDomain())
	}

	return appointments, nil
}

// GetEntityAddress возвращает составной адрес regarding-сущности.
// Для opportunity адрес берется через связанного клиента: адрес
// account предпочитается адресу contact, если есть оба.
func (r *crmRepository) GetEntityAddress(
	ctx context.Context,
	kind domain.RegardingKind,
	id uuid.UUID,
) (string, error) {
	switch kind {
	case domain.RegardingContact:
		return r.entityAddress(ctx, "contacts", id)
	case domain.RegardingAccount:
		return r.entityAddress(ctx, "accounts", id)
	case domain.RegardingOpportunity:
		return r.opportunityAddress(ctx, id)
	default:
		// Нераспознанный тип - не ошибка, просто нет адреса
		r.logger.Debug("Unrecognized regarding kind",
			zap.String("kind", string(kind)),
			zap.String("id", id.String()))
		return "", nil
	}
}

func (r *crmRepository) entityAddress(ctx context.Context, table string, id uuid.UUID) (string, error) {
	// table приходит только из switch выше, не из пользовательского ввода
	query := `
		SELECT
			COALESCE(address_street, '') AS address_street,
			COALESCE(address_city, '') AS address_city,
			COALESCE(address_state, '') AS address_state,
			COALESCE(address_postal_code, '') AS address_postal_code,
			COALESCE(address_country, '') AS address_country
		FROM ` + table + `
		WHERE id = $1
	`

	var addr domain.EntityAddress
	err := r.db.GetContext(ctx, &addr, query, id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get entity address",
			zap.String("table", table),
			zap.String("id", id.String()),
			zap.Error(err))
		return "", errors.ErrDatabaseError
	}

	return addr.Composite(), nil
}

func (r *crmRepository) opportunityAddress(ctx context.Context, id uuid.UUID) (string, error) {
	query := `
		SELECT
			COALESCE(a.address_street, c.address_street, '') AS address_street,
			COALESCE(a.address_city, c.address_city, '') AS address_city,
			COALESCE(a.address_state, c.address_state, '') AS address_state,
			COALESCE(a.address_postal_code, c.address_postal_code, '') AS address_postal_code,
			COALESCE(a.address_country, c.address_country, '') AS address_country
		FROM opportunities o
		LEFT JOIN accounts a ON a.id = o.account_id
		LEFT JOIN contacts c ON c.id = o.contact_id
		WHERE o.id = $1
	`

	var addr domain.EntityAddress
	err := r.db.GetContext(ctx, &addr, query, id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get opportunity address",
			zap.String("id", id.String()),
			zap.Error(err))
		return "", errors.ErrDatabaseError
	}

	return addr.Composite(), nil
}

// UpdateAppointmentState обновляет статус встречи
func (r *crmRepository) UpdateAppointmentState(
	ctx context.Context,
	id uuid.UUID,
	state domain.AppointmentState,
) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET state = $1 WHERE id = $2`,
		string(state), id,
	)
	if err != nil {
		r.logger.Error("Failed to update appointment state",
			zap.String("id", id.String()),
			zap.String("state", string(state)),
			zap.Error(err))
		return errors.ErrDatabaseError
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.ErrDatabaseError
	}
	if affected == 0 {
		return errors.ErrAppointmentNotFound
	}

	r.logger.Info("Appointment state updated",
		zap.String("id", id.String()),
		zap.String("state", string(state)))
	return nil
}
