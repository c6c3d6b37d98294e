package usecase

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
)

// StopAggregator группирует встречи по разрешенному адресу в остановки,
// сортирует хронологически и присваивает сквозные 1-based индексы
type StopAggregator struct {
	logger *zap.Logger
}

// NewStopAggregator - создание нового StopAggregator
func NewStopAggregator(logger *zap.Logger) *StopAggregator {
	return &StopAggregator{logger: logger}
}

// Aggregate строит упорядоченный список остановок.
// Группировка - точное совпадение строки адреса (после trim), не
// географическая близость. Представительное время группы - самое
// раннее начало среди её встреч; сортировка стабильна, равные времена
// сохраняют порядок первого появления.
func (a *StopAggregator) Aggregate(appts []domain.AppointmentWithAddress) []*domain.Stop {
	if len(appts) == 0 {
		return nil
	}

	byAddress := make(map[string]*domain.Stop)
	order := make([]string, 0, len(appts))

	for _, item := range appts {
		address := strings.TrimSpace(item.Address)
		if address == "" {
			continue
		}

		stop, ok := byAddress[address]
		if !ok {
			stop = &domain.Stop{Address: address}
			byAddress[address] = stop
			order = append(order, address)
		}
		stop.Appointments = append(stop.Appointments, item.Appointment)
	}

	stops := make([]*domain.Stop, 0, len(byAddress))
	for _, address := range order {
		stops = append(stops, byAddress[address])
	}

	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].EarliestStart().Before(stops[j].EarliestStart())
	})

	for i, stop := range stops {
		stop.Index = i + 1
	}

	a.logger.Debug("Stops aggregated",
		zap.Int("appointments", len(appts)),
		zap.Int("stops", len(stops)))

	return stops
}
