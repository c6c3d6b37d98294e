package domain

import "github.com/google/uuid"

const (
	// StreamAppointmentsChanged - стрим событий изменения встреч в CRM
	StreamAppointmentsChanged = "stream:appointments:changed"
)

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}

type AppointmentChange string

const (
	AppointmentCreated AppointmentChange = "created"
	AppointmentUpdated AppointmentChange = "updated"
	AppointmentDeleted AppointmentChange = "deleted"
)

// AppointmentChangedEvent - событие изменения встречи, публикуемое CRM
type AppointmentChangedEvent struct {
	UserID        uuid.UUID         `json:"user_id"`
	AppointmentID uuid.UUID         `json:"appointment_id"`
	Change        AppointmentChange `json:"change"`
}
