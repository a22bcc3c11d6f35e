package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/internal/user/domain"
	"github.com/davicafu/hexaquery/pkg/query"
	"github.com/davicafu/hexaquery/tests/mocks"
)

func newService(repo *mocks.InMemoryUserRepo, cache *mocks.DummyCache) *UserService {
	if cache == nil {
		return NewUserService(repo, nil, nil, zap.NewNop())
	}
	return NewUserService(repo, cache, nil, zap.NewNop())
}

func birth(years int) time.Time {
	return time.Now().UTC().AddDate(-years, 0, -1)
}

func TestCreateUser_Success(t *testing.T) {
	repo := mocks.NewInMemoryUserRepo()
	service := newService(repo, &mocks.DummyCache{})

	user, err := service.CreateUser(context.Background(), "test@example.com", "Pepe", time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "Pepe", user.Nombre)

	// ✅ Verificar que se creó un evento Outbox
	require.Len(t, repo.Outbox, 1)
	assert.Equal(t, domain.UserCreated, repo.Outbox[0].EventType)
	assert.Equal(t, user.ID.String(), repo.Outbox[0].AggregateID)
}

func TestCreateUser_Invalid(t *testing.T) {
	repo := mocks.NewInMemoryUserRepo()
	service := newService(repo, nil)

	_, err := service.CreateUser(context.Background(), "no-es-email", "Pepe", time.Now())

	assert.ErrorIs(t, err, domain.ErrInvalidUser)
	assert.Empty(t, repo.Outbox)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)

	_, err := service.CreateUser(context.Background(), "dup@example.com", "Juan", time.Now())
	require.NoError(t, err)
	_, err = service.CreateUser(context.Background(), "DUP@example.com", "Otro Juan", time.Now())

	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestGetUser_NotFound(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), &mocks.DummyCache{})

	_, err := service.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetUser_RetriesTransientErrors(t *testing.T) {
	retryDelay = time.Millisecond
	repo := mocks.NewInMemoryUserRepo()
	repo.Err = errors.New("database is locked")
	service := newService(repo, nil)

	_, err := service.GetUser(context.Background(), uuid.New())

	assert.EqualError(t, err, "database is locked")
}

func TestUpdateUser_Success(t *testing.T) {
	repo := mocks.NewInMemoryUserRepo()
	service := newService(repo, &mocks.DummyCache{})

	user, err := service.CreateUser(context.Background(), "update@example.com", "Ana", time.Now())
	require.NoError(t, err)
	user.Nombre = "Ana Actualizada"

	require.NoError(t, service.UpdateUser(context.Background(), user))

	// Comprobar que se actualizó en el repo
	u2, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Actualizada", u2.Nombre)

	// ✅ Verificar que se creó un evento Outbox adicional
	require.Len(t, repo.Outbox, 2)
	assert.Equal(t, domain.UserUpdated, repo.Outbox[1].EventType)
}

func TestDeleteUser_Success(t *testing.T) {
	repo := mocks.NewInMemoryUserRepo()
	cache := &mocks.DummyCache{}
	service := newService(repo, cache)

	user, err := service.CreateUser(context.Background(), "delete@example.com", "Borrar", time.Now())
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return cache.Has(domain.CacheKeyByID(user.ID)) }, time.Second, 5*time.Millisecond)

	require.NoError(t, service.DeleteUser(context.Background(), user.ID))

	_, err = repo.GetByID(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Eventually(t, func() bool { return !cache.Has(domain.CacheKeyByID(user.ID)) }, time.Second, 5*time.Millisecond)

	require.Len(t, repo.Outbox, 2)
	assert.Equal(t, domain.UserDeleted, repo.Outbox[1].EventType)
	assert.Equal(t, user.ID.String(), repo.Outbox[1].AggregateID)
}

// -------------------- GetUser con Cache --------------------

func TestGetUser_CacheHit(t *testing.T) {
	id := uuid.New()
	cache := mocks.NewDummyCache()
	require.NoError(t, cache.Set(context.Background(), domain.CacheKeyByID(id),
		&domain.User{ID: id, Email: "cache@example.com", Nombre: "CacheUser"}, 60))

	// El repositorio está vacío: el usuario solo puede venir de la caché.
	service := newService(mocks.NewInMemoryUserRepo(), cache)

	u, err := service.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "CacheUser", u.Nombre)
}

func TestGetUser_CacheMissFillsCache(t *testing.T) {
	id := uuid.New()
	repo := mocks.NewInMemoryUserRepo()
	require.NoError(t, repo.Create(context.Background(),
		&domain.User{ID: id, Email: "miss@example.com", Nombre: "MissUser"}, sharedDomain.OutboxEvent{}))
	cache := mocks.NewDummyCache()
	service := newService(repo, cache)

	u, err := service.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Eventually(t, func() bool { return cache.Has(domain.CacheKeyByID(id)) }, time.Second, 5*time.Millisecond)
}

// ----------------- ListUsers / Search / Filter -----------------

func seedUsers(t *testing.T, service *UserService) []*domain.User {
	t.Helper()
	var out []*domain.User
	for _, u := range []struct {
		email, nombre string
		age           int
	}{
		{"ana@example.com", "Ana", 20},
		{"bob@example.com", "Bob", 15},
		{"carlos@example.com", "Carlos", 25},
		{"anabel@example.com", "Anabel", 40},
	} {
		created, err := service.CreateUser(context.Background(), u.email, u.nombre, birth(u.age))
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func names(page *query.PagedResult[*domain.User]) []string {
	out := make([]string, len(page.Items))
	for i, u := range page.Items {
		out[i] = u.Nombre
	}
	return out
}

func TestListUsers_DefaultSortAndPage(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)
	seedUsers(t, service)

	page, err := service.ListUsers(context.Background(), "pageSize=3")
	require.NoError(t, err)

	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, query.SortRequest{By: DefaultUserSort, Direction: query.Ascending}, page.Sort)
	assert.Equal(t, []string{"Ana", "Bob", "Carlos"}, names(page))
}

func TestListUsers_FilterAndSort(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)
	seedUsers(t, service)

	page, err := service.ListUsers(context.Background(), "nombre=an||ct&sortBy=nombre&sortDirection=desc")
	require.NoError(t, err)

	assert.Equal(t, []string{"Anabel", "Ana"}, names(page))
}

func TestListUsers_InvalidQuery(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)

	_, err := service.ListUsers(context.Background(), "sortBy=password")

	assert.True(t, query.IsArgumentError(err))
	assert.ErrorIs(t, err, query.ErrInvalidSortField)
}

func TestFilterUsers_ByAge(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)
	seedUsers(t, service)
	minAge, maxAge := 18, 30

	adults, err := service.FilterUsers(context.Background(), &minAge, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Carlos", "Anabel"}, names(adults))

	young, err := service.FilterUsers(context.Background(), &minAge, &maxAge, "sortBy=nombre&sortDirection=desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carlos", "Ana"}, names(young))
}

func TestSearchUsersByName(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)
	seedUsers(t, service)

	page, err := service.SearchUsersByName(context.Background(), "ANA")
	require.NoError(t, err)

	assert.Equal(t, query.Descending, page.Sort.Direction)
	assert.ElementsMatch(t, []string{"Anabel", "Ana"}, names(page))
}

func TestSearchUsersByName_OnlyMatchesName(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)
	seedUsers(t, service)
	_, err := service.CreateUser(context.Background(), "anaconda@example.com", "Bob", birth(30))
	require.NoError(t, err)

	page, err := service.SearchUsersByName(context.Background(), "ana")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Anabel", "Ana"}, names(page))
}

func TestSearchUsersByName_IgnoresQuerySyntax(t *testing.T) {
	service := newService(mocks.NewInMemoryUserRepo(), nil)
	seedUsers(t, service)

	page, err := service.SearchUsersByName(context.Background(), "an&pageSize=1")
	require.NoError(t, err)

	assert.Equal(t, query.DefaultPageSize, page.PageSize)
	assert.Empty(t, page.Items)

	page, err = service.SearchUsersByName(context.Background(), "ana||email")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListUsers_ServedFromCache(t *testing.T) {
	repo := mocks.NewInMemoryUserRepo()
	cache := mocks.NewDummyCache()
	service := newService(repo, cache)
	seedUsers(t, service)

	first, err := service.ListUsers(context.Background(), "pageSize=2")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		spec, err := query.ParseFor[domain.User]("pageSize=2", DefaultUserSort)
		require.NoError(t, err)
		return cache.Has("user:list:" + spec.Key())
	}, time.Second, 5*time.Millisecond)

	// Con el repositorio caído la página sigue saliendo de la caché.
	repo.Err = errors.New("down")
	second, err := service.ListUsers(context.Background(), "pageSize=2")
	require.NoError(t, err)
	assert.Equal(t, names(first), names(second))
}
