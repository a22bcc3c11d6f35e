package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedSQLite "github.com/davicafu/hexaquery/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/hexaquery/internal/user/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

func newTestRepo(t *testing.T) (*UserRepoSQLite, *sql.DB) {
	t.Helper()
	db, err := sharedSQLite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSQLite(db))
	return NewUserRepoSQLite(db), db
}

func newUser(email, nombre string, birth time.Time) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Nombre:    nombre,
		BirthDate: birth,
		CreatedAt: time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC),
	}
}

func evtFor(u *domain.User, eventType string) sharedDomain.OutboxEvent {
	return sharedDomain.NewOutboxEvent(domain.CacheAggregate, u.ID.String(), eventType, u)
}

func TestUserRepoSQLite_CRUD(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	u := newUser("ana@example.com", "Ana", time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, u, evtFor(u, domain.UserCreated)))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	u.Nombre = "Ana María"
	require.NoError(t, repo.Update(ctx, u, evtFor(u, domain.UserUpdated)))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Nombre)

	require.NoError(t, repo.DeleteByID(ctx, u.ID, evtFor(u, domain.UserDeleted)))
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// Cada escritura deja su evento en el outbox.
	pending, err := sharedSQLite.NewOutboxRepoSQLite(db).FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, domain.UserCreated, pending[0].EventType)
}

func TestUserRepoSQLite_NotFound(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	u := newUser("nadie@example.com", "Nadie", time.Now().UTC())

	assert.ErrorIs(t, repo.Update(ctx, u, evtFor(u, domain.UserUpdated)), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.DeleteByID(ctx, u.ID, evtFor(u, domain.UserDeleted)), domain.ErrUserNotFound)

	// Sin cambios no se publica nada.
	pending, err := sharedSQLite.NewOutboxRepoSQLite(db).FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUserRepoSQLite_DuplicateEmail(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first := newUser("dup@example.com", "Uno", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, first, evtFor(first, domain.UserCreated)))

	second := newUser("DUP@example.com", "Dos", time.Now().UTC())
	assert.ErrorIs(t, repo.Create(ctx, second, evtFor(second, domain.UserCreated)), domain.ErrUserAlreadyExists)
}

func TestUserRepoSQLite_List(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, u := range []*domain.User{
		newUser("ana@example.com", "Ana", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)),
		newUser("bea@example.com", "Bea", time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)),
		newUser("carla@example.com", "Carla", time.Date(1985, 3, 9, 0, 0, 0, 0, time.UTC)),
		newUser("dani@other.org", "Dani", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)),
	} {
		require.NoError(t, repo.Create(ctx, u, evtFor(u, domain.UserCreated)))
	}

	tests := []struct {
		name  string
		raw   string
		total int
		names []string
	}{
		{"todo ordenado por nombre", "sortBy=nombre", 4, []string{"Ana", "Bea", "Carla", "Dani"}},
		{"contains en email", "email=example||ct&sortBy=nombre&sortDirection=desc", 3, []string{"Carla", "Bea", "Ana"}},
		{"rango de fechas", "birthDate=1989-12-31||gt&BirthDate=2000-01-01||lt&sortBy=birthDate", 2, []string{"Ana", "Dani"}},
		{"paginado", "sortBy=nombre&pageSize=2&pageNumber=2", 4, []string{"Carla", "Dani"}},
		{"búsqueda rápida", "query=DANI&sortBy=nombre", 1, []string{"Dani"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := query.ParseFor[domain.User](tt.raw, "createdAt")
			require.NoError(t, err)

			page, err := query.ExecuteGetManyAndCount[*domain.User](ctx, spec, repo)
			require.NoError(t, err)
			assert.Equal(t, tt.total, page.TotalCount)

			var names []string
			for _, u := range page.Items {
				names = append(names, u.Nombre)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}
