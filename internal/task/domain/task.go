package domain

import (
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Valid indica si s es uno de los estados conocidos.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// Task es la entidad filtrable de /tasks. Los tags json dan los nombres de la
// query string y los tags db las columnas.
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	AssigneeID  uuid.UUID  `json:"assigneeId" db:"assignee_id"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

func (t *Task) PartitionKey() string {
	return t.ID.String()
}

// --- Métodos de dominio ---

// Complete marca la tarea como completada. Solo las pendientes pueden completarse.
func (t *Task) Complete() error {
	if t.Status != TaskPending {
		return ErrTaskCannotComplete
	}
	t.Status = TaskCompleted
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *Task) Fail() {
	t.Status = TaskFailed
	t.UpdatedAt = time.Now().UTC()
}

func (t *Task) Update(title, description string) {
	t.Title = title
	t.Description = description
	t.UpdatedAt = time.Now().UTC()
}

// Validate comprueba las invariantes antes de persistir.
func (t *Task) Validate() error {
	if t.Title == "" || !t.Status.Valid() {
		return ErrInvalidTask
	}
	return nil
}

var _ sharedBus.Keyer = (*Task)(nil)
