package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedSQLite "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/hexaquery/internal/shared/infra/platform/sqlbuilder"
	"github.com/davicafu/hexaquery/internal/user/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

const userTable = "users"

var userColumns = []string{"id", "email", "nombre", "birth_date", "created_at"}

type UserRepoSQLite struct {
	db *sql.DB
}

var _ domain.UserRepository = (*UserRepoSQLite)(nil)

func NewUserRepoSQLite(db *sql.DB) *UserRepoSQLite {
	return &UserRepoSQLite{db: db}
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas users y outbox si no existen. Las fechas se guardan
// como texto en sqlbuilder.SQLiteTimeLayout para que se comparen en orden.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE COLLATE NOCASE,
            nombre TEXT NOT NULL,
            birth_date TEXT NOT NULL,
            created_at TEXT NOT NULL
        )
    `)
	if err != nil {
		return err
	}
	return sharedSQLite.InitOutboxSchema(db)
}

// ------------------ Métodos ------------------

// Create inserta usuario y evento en transacción
func (r *UserRepoSQLite) Create(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id,email,nombre,birth_date,created_at) VALUES (?,?,?,?,?)`,
			u.ID.String(), u.Email, u.Nombre, sqlbuilder.SQLiteTime(u.BirthDate), sqlbuilder.SQLiteTime(u.CreatedAt),
		)
		return err
	})
}

// Update actualiza usuario y crea evento Outbox en transacción
func (r *UserRepoSQLite) Update(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET email=?, nombre=?, birth_date=? WHERE id=?`,
			u.Email, u.Nombre, sqlbuilder.SQLiteTime(u.BirthDate), u.ID.String(),
		)
		return found(res, err)
	})
}

// DeleteByID elimina usuario y crea evento Outbox en transacción
func (r *UserRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, evt, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id.String())
		return found(res, err)
	})
}

func (r *UserRepoSQLite) inTx(ctx context.Context, evt sharedDomain.OutboxEvent, write func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := write(tx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	if err := sharedSQLite.InsertOutbox(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return tx.Commit()
}

func found(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// ------------------ Lectura ------------------

func (r *UserRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, nombre, birth_date, created_at FROM users WHERE id = ?`, id.String())

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Count implementa query.Source.
func (r *UserRepoSQLite) Count(ctx context.Context, q query.Query[*domain.User]) (int, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return 0, err
	}
	st, err := sqlbuilder.SQLite.Count(userTable, c)
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
func (r *UserRepoSQLite) Fetch(ctx context.Context, q query.Query[*domain.User]) ([]*domain.User, error) {
	c, err := sharedDomain.FromSpecification(q.Spec)
	if err != nil {
		return nil, err
	}
	st, err := sqlbuilder.SQLite.Select(userTable, userColumns, c)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*domain.User, error) {
	var (
		u                    domain.User
		id, birth, createdAt string
	)
	if err := s.Scan(&id, &u.Email, &u.Nombre, &birth, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if u.BirthDate, err = time.Parse(sqlbuilder.SQLiteTimeLayout, birth); err != nil {
		return nil, fmt.Errorf("invalid birth_date for user %s: %w", id, err)
	}
	if u.CreatedAt, err = time.Parse(sqlbuilder.SQLiteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for user %s: %w", id, err)
	}
	return &u, nil
}
