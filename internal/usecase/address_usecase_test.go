package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/usecase"
)

func appointmentAt(subject, location string, start time.Time) domain.Appointment {
	return domain.Appointment{
		ID:             uuid.New(),
		Subject:        subject,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Location:       location,
		State:          domain.AppointmentStateScheduled,
	}
}

func TestAddressUseCase_ResolveAddress_LocationFirst(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	uc := usecase.NewAddressUseCase(crmRepo, zap.NewNop(), usecase.PolicyLocationFirst)

	appt := appointmentAt("Meeting", "  10 Main St, Springfield  ", time.Now())
	appt.Regarding = &domain.RegardingRef{Kind: domain.RegardingContact, ID: uuid.New()}

	// Act
	addr := uc.ResolveAddress(context.Background(), appt)

	// Assert: location wins, CRM is never consulted
	assert.Equal(t, "10 Main St, Springfield", addr)
	crmRepo.AssertNotCalled(t, "GetEntityAddress")
}

func TestAddressUseCase_ResolveAddress_FallsBackToRegarding(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	uc := usecase.NewAddressUseCase(crmRepo, zap.NewNop(), usecase.PolicyLocationFirst)

	contactID := uuid.New()
	appt := appointmentAt("Meeting", "   ", time.Now())
	appt.Regarding = &domain.RegardingRef{Kind: domain.RegardingContact, ID: contactID}

	crmRepo.On("GetEntityAddress", mock.Anything, domain.RegardingContact, contactID).
		Return("22 Oak Ave, Portland", nil)

	// Act
	addr := uc.ResolveAddress(context.Background(), appt)

	// Assert
	assert.Equal(t, "22 Oak Ave, Portland", addr)
	crmRepo.AssertExpectations(t)
}

func TestAddressUseCase_ResolveAddress_RegardingFirstPolicy(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	uc := usecase.NewAddressUseCase(crmRepo, zap.NewNop(), usecase.PolicyRegardingFirst)

	accountID := uuid.New()
	appt := appointmentAt("Meeting", "10 Main St", time.Now())
	appt.Regarding = &domain.RegardingRef{Kind: domain.RegardingAccount, ID: accountID}

	crmRepo.On("GetEntityAddress", mock.Anything, domain.RegardingAccount, accountID).
		Return("HQ Plaza, Denver", nil)

	// Act
	addr := uc.ResolveAddress(context.Background(), appt)

	// Assert: regarding entity wins over the location field
	assert.Equal(t, "HQ Plaza, Denver", addr)
}

func TestAddressUseCase_ResolveAddress_NoSources(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	uc := usecase.NewAddressUseCase(crmRepo, zap.NewNop(), usecase.PolicyLocationFirst)

	appt := appointmentAt("Meeting", "", time.Now())

	// Act
	addr := uc.ResolveAddress(context.Background(), appt)

	// Assert
	assert.Equal(t, "", addr)
	crmRepo.AssertNotCalled(t, "GetEntityAddress")
}

func TestAddressUseCase_ResolveAddress_LookupFailureIsNotFatal(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	uc := usecase.NewAddressUseCase(crmRepo, zap.NewNop(), usecase.PolicyLocationFirst)

	appt := appointmentAt("Meeting", "", time.Now())
	appt.Regarding = &domain.RegardingRef{Kind: domain.RegardingOpportunity, ID: uuid.New()}

	crmRepo.On("GetEntityAddress", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused"))

	// Act
	addr := uc.ResolveAddress(context.Background(), appt)

	// Assert: failure means "no address", never an error
	assert.Equal(t, "", addr)
}

func TestAddressUseCase_ResolveAll_PreservesOrderAndDropsUnresolved(t *testing.T) {
	// Arrange
	crmRepo := new(mockCRMRepository)
	uc := usecase.NewAddressUseCase(crmRepo, zap.NewNop(), usecase.PolicyLocationFirst)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	appts := []domain.Appointment{
		appointmentAt("First", "Addr A", base),
		appointmentAt("No address", "", base.Add(time.Hour)),
		appointmentAt("Second", "Addr B", base.Add(2*time.Hour)),
	}

	// Act
	resolved := uc.ResolveAll(context.Background(), appts)

	// Assert
	assert.Len(t, resolved, 2)
	assert.Equal(t, "First", resolved[0].Appointment.Subject)
	assert.Equal(t, "Addr A", resolved[0].Address)
	assert.Equal(t, "Second", resolved[1].Appointment.Subject)
	assert.Equal(t, "Addr B", resolved[1].Address)
}

func TestParseAddressPolicy_DefaultsToLocationFirst(t *testing.T) {
	assert.Equal(t, usecase.PolicyLocationFirst, usecase.ParseAddressPolicy(""))
	assert.Equal(t, usecase.PolicyLocationFirst, usecase.ParseAddressPolicy("bogus"))
	assert.Equal(t, usecase.PolicyRegardingFirst, usecase.ParseAddressPolicy("regarding_first"))
	assert.Equal(t, usecase.PolicyRegardingOnly, usecase.ParseAddressPolicy("regarding_only"))
}
