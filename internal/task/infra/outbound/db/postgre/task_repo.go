package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedPostgres "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/postgres"
	"github.com/davicafu/hexaquery/internal/shared/infra/platform/sqlbuilder"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

const taskTable = "tasks"

var taskColumns = []string{"id", "title", "description", "assignee_id", "status", "created_at", "updated_at"}

// TaskRepoPostgres implementa la interfaz TaskRepository para PostgreSQL.
type TaskRepoPostgres struct {
	db *sql.DB
}

var _ taskDomain.TaskRepository = (*TaskRepoPostgres)(nil)

// NewTaskRepoPostgres es el constructor del repositorio.
func NewTaskRepoPostgres(db *sql.DB) *TaskRepoPostgres {
	return &TaskRepoPostgres{db: db}
}

// InitPostgresTaskSchema crea las tablas tasks y outbox si no existen.
func InitPostgresTaskSchema(db *sql.DB) error {
	_, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS tasks (
        id UUID PRIMARY KEY,
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        assignee_id UUID,
        status TEXT NOT NULL,
        created_at TIMESTAMP WITH TIME ZONE NOT NULL,
        updated_at TIMESTAMP WITH TIME ZONE NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id);`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	return sharedPostgres.InitOutboxSchema(db)
}

// ------------------ CRUD + Outbox ------------------

// Create inserta una tarea y un evento en una transacción.
func (r *TaskRepoPostgres) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, taskDomain.ErrTaskAlreadyExists, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`INSERT INTO tasks (id, title, description, assignee_id, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Title, t.Description, t.AssigneeID, string(t.Status), t.CreatedAt, t.UpdatedAt,
		)
	})
}

// Update actualiza una tarea y crea un evento en una transacción.
func (r *TaskRepoPostgres) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, taskDomain.ErrTaskNotFound, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`UPDATE tasks SET title=$1, description=$2, assignee_id=$3, status=$4, updated_at=$5 WHERE id=$6`,
			t.Title, t.Description, t.AssigneeID, string(t.Status), t.UpdatedAt, t.ID,
		)
	})
}

// DeleteByID elimina una tarea y crea un evento en una transacción.
func (r *TaskRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, taskDomain.ErrTaskNotFound, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	})
}

// inTx ejecuta write y guarda evt en la misma transacción. Si write no toca
// ninguna fila se devuelve none y no se escribe el evento.
func (r *TaskRepoPostgres) inTx(ctx context.Context, evt sharedDomain.OutboxEvent, none error, write func(tx *sql.Tx) (sql.Result, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	res, err := write(tx)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	} else if rows == 0 {
		return none
	}

	if err := sharedPostgres.InsertOutbox(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to insert outbox: %w", err)
	}
	return tx.Commit()
}

// ------------------ Lectura ------------------

// GetByID recupera una tarea de la base de datos por su ID.
func (r *TaskRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, assignee_id, status, created_at, updated_at FROM tasks WHERE id=$1`, id)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, taskDomain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return t, nil
}

// Count implementa query.Source.
func (r *TaskRepoPostgres) Count(ctx context.Context, q query.Query[*taskDomain.Task]) (int, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return 0, err
	}
	st, err := sqlbuilder.Postgres.Count(taskTable, c)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Fetch implementa query.Source.
func (r *TaskRepoPostgres) Fetch(ctx context.Context, q query.Query[*taskDomain.Task]) ([]*taskDomain.Task, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return nil, err
	}
	st, err := sqlbuilder.Postgres.Select(taskTable, taskColumns, c)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*taskDomain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*taskDomain.Task, error) {
	var (
		t      taskDomain.Task
		status string
	)
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &t.AssigneeID, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = taskDomain.TaskStatus(status)
	return &t, nil
}
