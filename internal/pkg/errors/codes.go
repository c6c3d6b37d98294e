package errors

import "net/http"

var (
	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Widget session not found",
		http.StatusNotFound,
	)

	ErrAppointmentNotFound = New(
		"APPOINTMENT_NOT_FOUND",
		"Appointment not found",
		http.StatusNotFound,
	)

	ErrInvalidSessionID = New(
		"INVALID_SESSION_ID",
		"Invalid session identifier",
		http.StatusBadRequest,
	)

	ErrInvalidAppointmentID = New(
		"INVALID_APPOINTMENT_ID",
		"Invalid appointment identifier",
		http.StatusBadRequest,
	)

	ErrInvalidAppointmentState = New(
		"INVALID_APPOINTMENT_STATE",
		"Invalid appointment state",
		http.StatusBadRequest,
	)

	ErrInvalidDateRange = New(
		"INVALID_DATE_RANGE",
		"Invalid date range: 'from' must be before 'to'",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
