package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskLogEntry es una fila del histórico analítico: el estado de la tarea tal y
// como quedó tras un evento. EventID identifica la fila.
type TaskLogEntry struct {
	EventID     uuid.UUID  `json:"eventId" db:"event_id" query:"id"`
	EventType   string     `json:"eventType" db:"event_type"`
	EventTime   time.Time  `json:"eventTime" db:"event_time"`
	TaskID      uuid.UUID  `json:"taskId" db:"task_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	AssigneeID  uuid.UUID  `json:"assigneeId" db:"assignee_id"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// NewTaskLogEntry copia el estado de t en una entrada del evento dado.
func NewTaskLogEntry(eventID uuid.UUID, eventType string, eventTime time.Time, t Task) TaskLogEntry {
	return TaskLogEntry{
		EventID:     eventID,
		EventType:   eventType,
		EventTime:   eventTime,
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssigneeID:  t.AssigneeID,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// DailyTaskTrend agrega por día las altas y las tareas completadas.
type DailyTaskTrend struct {
	Day            time.Time `json:"day"`
	CreatedCount   int       `json:"createdCount"`
	CompletedCount int       `json:"completedCount"`
}

// TaskStats es la respuesta de /tasks/stats.
type TaskStats struct {
	Start                 time.Time        `json:"start"`
	End                   time.Time        `json:"end"`
	AverageCompletionSecs float64          `json:"averageCompletionSeconds"`
	DailyTrend            []DailyTaskTrend `json:"dailyTrend"`
}
