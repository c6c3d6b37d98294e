package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
)

// AddressPolicy - порядок источников адреса встречи. Разные ревизии
// исходного виджета расходились в приоритете, поэтому порядок
// конфигурируем, а не зашит.
type AddressPolicy string

const (
	PolicyLocationFirst  AddressPolicy = "location_first"
	PolicyRegardingFirst AddressPolicy = "regarding_first"
	PolicyRegardingOnly  AddressPolicy = "regarding_only"
)

// ParseAddressPolicy возвращает политику по имени, по умолчанию location_first
func ParseAddressPolicy(s string) AddressPolicy {
	switch AddressPolicy(s) {
	case PolicyRegardingFirst:
		return PolicyRegardingFirst
	case PolicyRegardingOnly:
		return PolicyRegardingOnly
	default:
		return PolicyLocationFirst
	}
}

// AddressUseCase - разрешение адреса встречи по цепочке источников:
// собственное поле location и адрес regarding-сущности из CRM
type AddressUseCase struct {
	crmRepo repository.CRMRepository
	logger  *zap.Logger
	policy  AddressPolicy
}

// NewAddressUseCase - создание нового AddressUseCase
func NewAddressUseCase(
	crmRepo repository.CRMRepository,
	logger *zap.Logger,
	policy AddressPolicy,
) *AddressUseCase {
	return &AddressUseCase{
		crmRepo: crmRepo,
		logger:  logger,
		policy:  policy,
	}
}

// ResolveAddress возвращает адрес встречи или пустую строку, если
// адрес определить не удалось. Сбои lookup не считаются ошибками:
// встреча без адреса просто не попадает на карту.
func (uc *AddressUseCase) ResolveAddress(ctx context.Context, appt domain.Appointment) string {
	switch uc.policy {
	case PolicyRegardingFirst:
		if addr := uc.fromRegarding(ctx, appt); addr != "" {
			return addr
		}
		return uc.fromLocation(appt)
	case PolicyRegardingOnly:
		return uc.fromRegarding(ctx, appt)
	default:
		if addr := uc.fromLocation(appt); addr != "" {
			return addr
		}
		return uc.fromRegarding(ctx, appt)
	}
}

// ResolveAll разрешает адреса всех встреч параллельно (fan-out/fan-in),
// сохраняя исходный порядок. Встречи без адреса молча отбрасываются.
func (uc *AddressUseCase) ResolveAll(ctx context.Context, appts []domain.Appointment) []domain.AppointmentWithAddress {
	if len(appts) == 0 {
		return nil
	}

	addresses := make([]string, len(appts))

	var wg sync.WaitGroup
	for i, appt := range appts {
		wg.Add(1)
		go func(i int, appt domain.Appointment) {
			defer wg.Done()
			addresses[i] = uc.ResolveAddress(ctx, appt)
		}(i, appt)
	}
	wg.Wait()

	resolved := make([]domain.AppointmentWithAddress, 0, len(appts))
	for i, appt := range appts {
		if addresses[i] == "" {
			continue
		}
		resolved = append(resolved, domain.AppointmentWithAddress{
			Appointment: appt,
			Address:     addresses[i],
		})
	}

	uc.logger.Debug("Addresses resolved",
		zap.Int("total", len(appts)),
		zap.Int("resolved", len(resolved)))

	return resolved
}

func (uc *AddressUseCase) fromLocation(appt domain.Appointment) string {
	return strings.TrimSpace(appt.Location)
}

func (uc *AddressUseCase) fromRegarding(ctx context.Context, appt domain.Appointment) string {
	ref := appt.Regarding
	if ref == nil || ref.ID == uuid.Nil {
		return ""
	}

	addr, err := uc.crmRepo.GetEntityAddress(ctx, ref.Kind, ref.ID)
	if err != nil {
		uc.logger.Debug("Regarding address lookup failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.String("kind", string(ref.Kind)),
			zap.Error(err))
		return ""
	}

	return strings.TrimSpace(addr)
}
