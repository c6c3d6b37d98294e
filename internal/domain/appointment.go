package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentState string

const (
	AppointmentStateScheduled AppointmentState = "scheduled"
	AppointmentStateCompleted AppointmentState = "completed"
	AppointmentStateCanceled  AppointmentState = "canceled"
)

// IsValidAppointmentState проверяет допустимость статуса встречи
func IsValidAppointmentState(s string) bool {
	switch AppointmentState(s) {
	case AppointmentStateScheduled, AppointmentStateCompleted, AppointmentStateCanceled:
		return true
	}
	return false
}

// RegardingKind - тип связанной CRM-сущности
type RegardingKind string

const (
	RegardingContact     RegardingKind = "contact"
	RegardingAccount     RegardingKind = "account"
	RegardingOpportunity RegardingKind = "opportunity"
)

// RegardingRef - ссылка встречи на связанную сущность
type RegardingRef struct {
	Kind RegardingKind `json:"kind"`
	ID   uuid.UUID     `json:"id"`
	Name string        `json:"name"`
}

// Appointment - встреча из CRM. Неизменяема после загрузки,
// при обновлении набор заменяется целиком.
type Appointment struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	Subject        string           `json:"subject" db:"subject"`
	ScheduledStart time.Time        `json:"scheduled_start" db:"scheduled_start"`
	ScheduledEnd   time.Time        `json:"scheduled_end" db:"scheduled_end"`
	Location       string           `json:"location,omitempty" db:"location"`
	Description    string           `json:"description,omitempty" db:"description"`
	Regarding      *RegardingRef    `json:"regarding,omitempty"`
	OwnerID        uuid.UUID        `json:"owner_id" db:"owner_id"`
	State          AppointmentState `json:"state" db:"state"`
}

// AppointmentWithAddress - встреча с разрешенным адресом
type AppointmentWithAddress struct {
	Appointment Appointment
	Address     string
}

// EntityAddress - составной адрес CRM-сущности
type EntityAddress struct {
	Street     string `db:"address_street"`
	City       string `db:"address_city"`
	State      string `db:"address_state"`
	PostalCode string `db:"address_postal_code"`
	Country    string `db:"address_country"`
}

// Composite собирает непустые части адреса в одну строку
func (a EntityAddress) Composite() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
