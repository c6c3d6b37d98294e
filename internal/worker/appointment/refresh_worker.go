package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appointment-map-service/internal/domain"
	"github.com/appointment-map-service/internal/domain/repository"
	"github.com/appointment-map-service/internal/usecase"
	"github.com/appointment-map-service/internal/worker"
)

// RefreshWorker слушает события изменения встреч из CRM и
// пересинхронизирует открытые сессии затронутых пользователей
type RefreshWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	sessionUC    *usecase.SessionUseCase
	consumerName string
	maxRetries   int
}

// NewRefreshWorker создает новый RefreshWorker
func NewRefreshWorker(
	streamRepo repository.StreamRepository,
	sessionUC *usecase.SessionUseCase,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *RefreshWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &RefreshWorker{
		BaseWorker:   worker.NewBaseWorker("appointment-refresh", consumerGroup, logger),
		streamRepo:   streamRepo,
		sessionUC:    sessionUC,
		consumerName: consumerName,
		maxRetries:   maxRetries,
	}
}

// Start запускает воркер
func (w *RefreshWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RefreshWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamAppointmentsChanged, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	msgChan, err := w.streamRepo.ConsumeStream(ctx, domain.StreamAppointmentsChanged, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-msgChan:
			if !ok {
				logger.Info("Stream channel closed")
				return nil
			}
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *RefreshWorker) handleMessage(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger()

	event, err := w.parseMessage(msg)
	if err != nil {
		logger.Warn("Failed to parse message, skipping",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		// ACK битое сообщение чтобы не застревало
		_ = w.streamRepo.AckMessage(ctx, domain.StreamAppointmentsChanged, w.ConsumerGroup(), msg.ID)
		return
	}

	logger.Debug("Appointment change received",
		zap.String("user_id", event.UserID.String()),
		zap.String("appointment_id", event.AppointmentID.String()),
		zap.String("change", string(event.Change)))

	var lastErr error
	for attempt := 0; attempt < w.maxRetries; attempt++ {
		if lastErr = w.sessionUC.RefreshForUser(ctx, event.UserID); lastErr == nil {
			break
		}
		logger.Warn("Refresh attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	if lastErr != nil {
		// Сообщение не подтверждаем: оно останется pending и будет
		// переиграно после восстановления
		logger.Error("Failed to refresh sessions, message left pending",
			zap.String("message_id", msg.ID),
			zap.String("user_id", event.UserID.String()),
			zap.Error(lastErr))
		return
	}

	if err := w.streamRepo.AckMessage(ctx, domain.StreamAppointmentsChanged, w.ConsumerGroup(), msg.ID); err != nil {
		logger.Error("Failed to ack message",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
}

func (w *RefreshWorker) parseMessage(msg domain.StreamMessage) (*domain.AppointmentChangedEvent, error) {
	var event domain.AppointmentChangedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.UserID == uuid.Nil {
		return nil, fmt.Errorf("event has no user_id")
	}
	return &event, nil
}
