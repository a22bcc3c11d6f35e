package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/internal/shared/infra/platform/sqlbuilder"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

const logTable = "tasks_log"

var logColumns = []string{
	"event_id", "event_type", "event_time", "task_id", "title", "description",
	"assignee_id", "status", "created_at", "updated_at",
}

// TaskAnalyticsRepo guarda el histórico de eventos de tareas en ClickHouse y lo
// expone como Source paginado.
type TaskAnalyticsRepo struct {
	db *sql.DB
}

var _ taskDomain.TaskAnalyticsRepository = (*TaskAnalyticsRepo)(nil)

// NewTaskAnalyticsRepo abre la conexión y comprueba que responde.
func NewTaskAnalyticsRepo(addr string, dbName string) (*TaskAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return NewTaskAnalyticsRepoFromDB(conn), nil
}

func NewTaskAnalyticsRepoFromDB(db *sql.DB) *TaskAnalyticsRepo {
	return &TaskAnalyticsRepo{db: db}
}

// InitSchema crea la tabla si no existe. ReplacingMergeTree descarta en segundo
// plano las entradas repetidas de un mismo evento.
func (r *TaskAnalyticsRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks_log (
			event_id    UUID,
			event_type  String,
			event_time  DateTime64(3),
			task_id     UUID,
			title       String,
			description String,
			assignee_id UUID,
			status      String,
			created_at  DateTime64(3),
			updated_at  DateTime64(3)
		) ENGINE = ReplacingMergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (event_time, event_id);
	`)
	return err
}

// LogBatch inserta un lote de entradas en una sola transacción.
func (r *TaskAnalyticsRepo) LogBatch(ctx context.Context, entries []taskDomain.TaskLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO tasks_log (event_id, event_type, event_time, task_id, title, description, assignee_id, status, created_at, updated_at)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.EventID, e.EventType, e.EventTime, e.TaskID, e.Title, e.Description,
			e.AssigneeID, string(e.Status), e.CreatedAt, e.UpdatedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for event %s: %w", e.EventID, err)
		}
	}

	return tx.Commit()
}

// Count implementa query.Source.
func (r *TaskAnalyticsRepo) Count(ctx context.Context, q query.Query[*taskDomain.TaskLogEntry]) (int, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return 0, err
	}
	st, err := sqlbuilder.ClickHouse.Count(logTable, c)
	if err != nil {
		return 0, err
	}
	var n uint64
	if err := r.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Fetch implementa query.Source.
func (r *TaskAnalyticsRepo) Fetch(ctx context.Context, q query.Query[*taskDomain.TaskLogEntry]) ([]*taskDomain.TaskLogEntry, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return nil, err
	}
	st, err := sqlbuilder.ClickHouse.Select(logTable, logColumns, c)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*taskDomain.TaskLogEntry{}
	for rows.Next() {
		var (
			e      taskDomain.TaskLogEntry
			status string
		)
		if err := rows.Scan(&e.EventID, &e.EventType, &e.EventTime, &e.TaskID, &e.Title, &e.Description,
			&e.AssigneeID, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = taskDomain.TaskStatus(status)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *TaskAnalyticsRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyTaskTrend, error) {
	q := `
		SELECT
			toStartOfDay(event_time) AS day,
			countIf(event_type = 'task.created') AS created,
			countIf(status = 'completed' AND event_type = 'task.updated') AS completed
		FROM tasks_log FINAL
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []taskDomain.DailyTaskTrend
	for rows.Next() {
		var (
			trend              taskDomain.DailyTaskTrend
			created, completed uint64
		)
		if err := rows.Scan(&trend.Day, &created, &completed); err != nil {
			return nil, err
		}
		trend.CreatedCount, trend.CompletedCount = int(created), int(completed)
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// GetAverageCompletionTime mide, para cada tarea completada en el rango, el
// tiempo entre su alta y su última actualización como completada.
func (r *TaskAnalyticsRepo) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	q := `
		SELECT
			avg(toUnixTimestamp64Milli(completion_time) - toUnixTimestamp64Milli(creation_time)) / 1000 AS avg_completion_seconds
		FROM (
			SELECT
				task_id,
				minIf(updated_at, event_type = 'task.created') AS creation_time,
				maxIf(updated_at, status = 'completed') AS completion_time
			FROM tasks_log FINAL
			WHERE task_id IN (
				SELECT DISTINCT task_id FROM tasks_log WHERE status = 'completed' AND event_time BETWEEN ? AND ?
			)
			GROUP BY task_id
		)
		WHERE toUnixTimestamp64Milli(creation_time) > 0 AND toUnixTimestamp64Milli(completion_time) > 0
	`
	var avgSeconds sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, q, start, end).Scan(&avgSeconds); err != nil {
		return 0, err
	}
	// Sin filas avg devuelve nan.
	if !avgSeconds.Valid || math.IsNaN(avgSeconds.Float64) {
		return 0, nil
	}
	return time.Duration(avgSeconds.Float64) * time.Second, nil
}
