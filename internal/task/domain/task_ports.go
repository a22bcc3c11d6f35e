package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskAlreadyExists  = errors.New("task already exists")
	ErrInvalidTask        = errors.New("invalid task")
	ErrTaskCannotComplete = errors.New("task cannot be marked as completed")
	ErrAnalyticsDisabled  = errors.New("task analytics not configured")
)

// TaskRepository persiste tareas junto con su evento de outbox y sirve los
// listados paginados.
type TaskRepository interface {
	Create(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
	query.Source[*Task]
}

// TaskAnalyticsRepository guarda el histórico de eventos y sus agregados.
type TaskAnalyticsRepository interface {
	LogBatch(ctx context.Context, entries []TaskLogEntry) error
	GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error)
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyTaskTrend, error)
	query.Source[*TaskLogEntry]
}

// ---------- Helpers comunes ----------

const CacheAggregate = "task"

func TaskCacheKeyByID(id uuid.UUID) string {
	return CacheAggregate + ":id:" + id.String()
}
