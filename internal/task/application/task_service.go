package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedCache "github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hexaquery/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

const (
	taskCacheTTL = 120 // segundos
	// Las páginas no se invalidan al escribir: pueden quedar obsoletas como mucho este tiempo.
	listCacheTTL = 15

	DefaultTaskSort    = "createdAt"
	DefaultHistorySort = "eventTime"
)

var (
	taskType     = reflect.TypeOf(taskDomain.Task{})
	taskLogType  = reflect.TypeOf(taskDomain.TaskLogEntry{})
	retryDelay   = 100 * time.Millisecond
	retryAttempt = 3
)

// TaskService define los casos de uso de Task. analytics y cache son opcionales.
type TaskService struct {
	repo      taskDomain.TaskRepository
	analytics taskDomain.TaskAnalyticsRepository
	cache     sharedCache.Cache
	parser    *query.Parser
	log       *zap.Logger
}

// NewTaskService crea el servicio. Con parser nil se usa la configuración por defecto.
func NewTaskService(
	repo taskDomain.TaskRepository,
	analytics taskDomain.TaskAnalyticsRepository,
	cache sharedCache.Cache,
	parser *query.Parser,
	log *zap.Logger,
) *TaskService {
	if parser == nil {
		parser = query.NewParser()
	}
	return &TaskService{
		repo:      repo,
		analytics: analytics,
		cache:     cache,
		parser:    parser,
		log:       log,
	}
}

// CreateTask crea la tarea y su evento de outbox en la misma operación.
func (s *TaskService) CreateTask(ctx context.Context, title, description string, assigneeID uuid.UUID) (*taskDomain.Task, error) {
	now := time.Now().UTC()
	task := &taskDomain.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		AssigneeID:  assigneeID,
		Status:      taskDomain.TaskPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(taskDomain.CacheAggregate, task.ID.String(), taskDomain.TaskCreated, task)
	if err := s.repo.Create(ctx, task, evt); err != nil {
		s.log.Error("❌ Failed to create task", zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, taskDomain.TaskCacheKeyByID(task.ID), task, taskCacheTTL, s.log)
	return task, nil
}

// UpdateTask persiste t tal cual y registra task.updated.
func (s *TaskService) UpdateTask(ctx context.Context, t *taskDomain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent(taskDomain.CacheAggregate, t.ID.String(), taskDomain.TaskUpdated, t)
	if err := s.repo.Update(ctx, t, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheSet(s.cache, taskDomain.TaskCacheKeyByID(t.ID), t, taskCacheTTL, s.log)
	return nil
}

// EditTask cambia título y descripción.
func (s *TaskService) EditTask(ctx context.Context, id uuid.UUID, title, description string) (*taskDomain.Task, error) {
	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Update(title, description)
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask marca la tarea como completada.
func (s *TaskService) CompleteTask(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := task.Complete(); err != nil {
		return nil, err
	}
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(taskDomain.CacheAggregate, id.String(), taskDomain.TaskDeleted,
		map[string]interface{}{"id": id.String()})

	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(s.cache, taskDomain.TaskCacheKeyByID(id), s.log)
	return nil
}

// GetTaskByID aplica cache-aside; los fallos transitorios del repositorio se reintentan.
func (s *TaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	key := taskDomain.TaskCacheKeyByID(id)

	var cached taskDomain.Task
	if sharedCache.Lookup(ctx, s.cache, key, &cached, s.log) {
		return &cached, nil
	}

	var task *taskDomain.Task
	err := sharedUtils.Retry(ctx, retryAttempt, retryDelay, func() error {
		var errRetry error
		task, errRetry = s.repo.GetByID(ctx, id)
		if errors.Is(errRetry, taskDomain.ErrTaskNotFound) {
			return fmt.Errorf("%w: %w", sharedUtils.ErrPermanent, errRetry)
		}
		return errRetry
	})
	if err != nil {
		if errors.Is(err, taskDomain.ErrTaskNotFound) {
			s.log.Warn("⚠️ Task not found", zap.String("task_id", id.String()))
			return nil, taskDomain.ErrTaskNotFound
		}
		s.log.Error("❌ Failed to fetch task", zap.String("task_id", id.String()), zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, task, taskCacheTTL, s.log)
	return task, nil
}

// ListTasks resuelve una query string de listado: filtros, búsqueda rápida,
// orden (por defecto createdAt) y página. Los errores de input son *query.ArgumentError.
func (s *TaskService) ListTasks(ctx context.Context, rawQuery string) (*query.PagedResult[*taskDomain.Task], error) {
	spec, err := s.parser.Parse(rawQuery, taskType, DefaultTaskSort)
	if err != nil {
		return nil, err
	}

	key := sharedCache.ListKey(taskDomain.CacheAggregate, spec.Key())
	var cached query.PagedResult[*taskDomain.Task]
	if sharedCache.Lookup(ctx, s.cache, key, &cached, s.log) {
		return &cached, nil
	}

	page, err := query.ExecuteGetManyAndCount[*taskDomain.Task](ctx, spec, s.repo)
	if err != nil {
		s.log.Error("❌ Failed to list tasks", zap.String("query", rawQuery), zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, page, listCacheTTL, s.log)
	return page, nil
}

// ListTasksForAssignee es ListTasks limitado a las tareas de un usuario.
func (s *TaskService) ListTasksForAssignee(ctx context.Context, assigneeID uuid.UUID, rawQuery string) (*query.PagedResult[*taskDomain.Task], error) {
	return s.ListTasks(ctx, taskDomain.WithFilters(rawQuery, taskDomain.AssigneeFilter(assigneeID)))
}

// ListPendingTasksForUser devuelve las tareas pendientes de un usuario.
func (s *TaskService) ListPendingTasksForUser(ctx context.Context, userID uuid.UUID, rawQuery string) (*query.PagedResult[*taskDomain.Task], error) {
	return s.ListTasks(ctx, taskDomain.WithFilters(rawQuery,
		taskDomain.AssigneeFilter(userID),
		taskDomain.StatusFilter(taskDomain.TaskPending),
	))
}

// ListTaskHistory consulta el histórico analítico (por defecto ordenado por eventTime).
func (s *TaskService) ListTaskHistory(ctx context.Context, rawQuery string) (*query.PagedResult[*taskDomain.TaskLogEntry], error) {
	if s.analytics == nil {
		return nil, taskDomain.ErrAnalyticsDisabled
	}
	spec, err := s.parser.Parse(rawQuery, taskLogType, DefaultHistorySort)
	if err != nil {
		return nil, err
	}
	page, err := query.ExecuteGetManyAndCount[*taskDomain.TaskLogEntry](ctx, spec, s.analytics)
	if err != nil {
		s.log.Error("❌ Failed to list task history", zap.String("query", rawQuery), zap.Error(err))
		return nil, err
	}
	return page, nil
}

// GetStats agrega el histórico entre start y end.
func (s *TaskService) GetStats(ctx context.Context, start, end time.Time) (*taskDomain.TaskStats, error) {
	if s.analytics == nil {
		return nil, taskDomain.ErrAnalyticsDisabled
	}
	avg, err := s.analytics.GetAverageCompletionTime(ctx, start, end)
	if err != nil {
		return nil, err
	}
	trend, err := s.analytics.GetDailyTrend(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if trend == nil {
		trend = []taskDomain.DailyTaskTrend{}
	}
	return &taskDomain.TaskStats{
		Start:                 start,
		End:                   end,
		AverageCompletionSecs: avg.Seconds(),
		DailyTrend:            trend,
	}, nil
}
