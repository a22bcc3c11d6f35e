package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/hexaquery/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
	sharedUtils "github.com/davicafu/hexaquery/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
)

var (
	handleTimeout = 2 * time.Second
	retryDelay    = 200 * time.Millisecond
	retryAttempt  = 3
)

// TaskHistoryConsumer proyecta los eventos de Task en el histórico analítico.
// Un mismo evento puede llegar varias veces; el histórico se deduplica por EventID.
type TaskHistoryConsumer struct {
	analytics taskDomain.TaskAnalyticsRepository
	log       *zap.Logger
}

var _ sharedBus.MessageHandler = (*TaskHistoryConsumer)(nil)

func NewTaskHistoryConsumer(analytics taskDomain.TaskAnalyticsRepository, logger *zap.Logger) *TaskHistoryConsumer {
	return &TaskHistoryConsumer{
		analytics: analytics,
		log:       logger,
	}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *TaskHistoryConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("⚠️ Failed to unmarshal integration event for task", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case taskDomain.TaskCreated, taskDomain.TaskUpdated, taskDomain.TaskDeleted:
	default:
		c.log.Warn("⚠️ Unknown task event type", zap.String("type", base.Type), zap.String("key", key))
		return
	}

	eventID, err := uuid.Parse(base.ID)
	if err != nil {
		c.log.Warn("⚠️ Invalid event id", zap.String("event_id", base.ID), zap.Error(err))
		return
	}

	sharedUtils.UnmarshalAndHandle[taskDomain.Task](c.log, base.Data, func(task taskDomain.Task) {
		entry := taskDomain.NewTaskLogEntry(eventID, base.Type, base.Timestamp, task)

		ctxLog, cancel := context.WithTimeout(ctx, handleTimeout)
		defer cancel()

		err := sharedUtils.Retry(ctxLog, retryAttempt, retryDelay, func() error {
			return c.analytics.LogBatch(ctxLog, []taskDomain.TaskLogEntry{entry})
		})
		if err != nil {
			c.log.Error("❌ Failed to record task event",
				zap.String("event_id", base.ID),
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
			return
		}
		c.log.Debug("📝 Task event recorded",
			zap.String("type", base.Type),
			zap.String("task_id", task.ID.String()),
		)
	})
}
