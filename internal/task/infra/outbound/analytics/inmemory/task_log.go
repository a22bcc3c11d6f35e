// Package inmemory guarda el histórico de tareas en memoria. Sustituye a
// ClickHouse en local y en los tests.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

type TaskLog struct {
	mu      sync.RWMutex
	entries []*taskDomain.TaskLogEntry
	seen    map[uuid.UUID]bool
}

var _ taskDomain.TaskAnalyticsRepository = (*TaskLog)(nil)

func NewTaskLog() *TaskLog {
	return &TaskLog{seen: make(map[uuid.UUID]bool)}
}

// LogBatch añade las entradas; las repetidas (mismo EventID) se ignoran.
func (l *TaskLog) LogBatch(ctx context.Context, entries []taskDomain.TaskLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if l.seen[e.EventID] {
			continue
		}
		l.seen[e.EventID] = true
		cp := e
		l.entries = append(l.entries, &cp)
	}
	return nil
}

func (l *TaskLog) Count(ctx context.Context, q query.Query[*taskDomain.TaskLogEntry]) (int, error) {
	return query.NewSliceSource(l.snapshot()).Count(ctx, q)
}

func (l *TaskLog) Fetch(ctx context.Context, q query.Query[*taskDomain.TaskLogEntry]) ([]*taskDomain.TaskLogEntry, error) {
	return query.NewSliceSource(l.snapshot()).Fetch(ctx, q)
}

func (l *TaskLog) snapshot() []*taskDomain.TaskLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*taskDomain.TaskLogEntry, len(l.entries))
	for i, e := range l.entries {
		cp := *e
		out[i] = &cp
	}
	return out
}

func between(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// GetAverageCompletionTime: para cada tarea completada en el rango, desde su
// alta hasta su última actualización como completada.
func (l *TaskLog) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	entries := l.snapshot()

	completedInRange := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if e.Status == taskDomain.TaskCompleted && between(e.EventTime, start, end) {
			completedInRange[e.TaskID] = true
		}
	}

	created := make(map[uuid.UUID]time.Time)
	completed := make(map[uuid.UUID]time.Time)
	for _, e := range entries {
		if !completedInRange[e.TaskID] {
			continue
		}
		if e.EventType == taskDomain.TaskCreated {
			if c, ok := created[e.TaskID]; !ok || e.UpdatedAt.Before(c) {
				created[e.TaskID] = e.UpdatedAt
			}
		}
		if e.Status == taskDomain.TaskCompleted && e.UpdatedAt.After(completed[e.TaskID]) {
			completed[e.TaskID] = e.UpdatedAt
		}
	}

	var total time.Duration
	n := 0
	for id, done := range completed {
		c, ok := created[id]
		if !ok {
			continue
		}
		total += done.Sub(c)
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return (total / time.Duration(n)).Truncate(time.Second), nil
}

func (l *TaskLog) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyTaskTrend, error) {
	byDay := make(map[time.Time]*taskDomain.DailyTaskTrend)
	for _, e := range l.snapshot() {
		if !between(e.EventTime, start, end) {
			continue
		}
		t := e.EventTime.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		trend, ok := byDay[day]
		if !ok {
			trend = &taskDomain.DailyTaskTrend{Day: day}
			byDay[day] = trend
		}
		if e.EventType == taskDomain.TaskCreated {
			trend.CreatedCount++
		}
		if e.EventType == taskDomain.TaskUpdated && e.Status == taskDomain.TaskCompleted {
			trend.CompletedCount++
		}
	}

	out := make([]taskDomain.DailyTaskTrend, 0, len(byDay))
	for _, t := range byDay {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}
