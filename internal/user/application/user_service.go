package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedCache "github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hexaquery/internal/shared/infra/utils"
	"github.com/davicafu/hexaquery/internal/user/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

const (
	userCacheTTL = 60 // segundos
	listCacheTTL = 15

	DefaultUserSort = "createdAt"
)

var (
	userType     = reflect.TypeOf(domain.User{})
	retryDelay   = 100 * time.Millisecond
	retryAttempt = 3
)

// UserService define los casos de uso relacionados con User.
type UserService struct {
	repo   domain.UserRepository
	cache  sharedCache.Cache
	parser *query.Parser
	log    *zap.Logger
}

// NewUserService constructor. cache es opcional y con parser nil se usa la
// configuración por defecto.
func NewUserService(repo domain.UserRepository, cache sharedCache.Cache, parser *query.Parser, log *zap.Logger) *UserService {
	if parser == nil {
		parser = query.NewParser()
	}
	return &UserService{
		repo:   repo,
		cache:  cache,
		parser: parser,
		log:    log,
	}
}

func (s *UserService) CreateUser(ctx context.Context, email, nombre string, birthDate time.Time) (*domain.User, error) {
	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Nombre:    nombre,
		BirthDate: birthDate.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(domain.CacheAggregate, user.ID.String(), domain.UserCreated, user)
	if err := s.repo.Create(ctx, user, evt); err != nil {
		s.log.Error("❌ Failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, domain.CacheKeyByID(user.ID), user, userCacheTTL, s.log)
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent(domain.CacheAggregate, u.ID.String(), domain.UserUpdated, u)
	if err := s.repo.Update(ctx, u, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheSet(s.cache, domain.CacheKeyByID(u.ID), u, userCacheTTL, s.log)
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(domain.CacheAggregate, id.String(), domain.UserDeleted,
		map[string]interface{}{"id": id.String()})

	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(s.cache, domain.CacheKeyByID(id), s.log)
	return nil
}

// GetUser obtiene un usuario (primero intenta desde cache).
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := domain.CacheKeyByID(id)

	var cached domain.User
	if sharedCache.Lookup(ctx, s.cache, key, &cached, s.log) {
		return &cached, nil
	}

	var user *domain.User
	err := sharedUtils.Retry(ctx, retryAttempt, retryDelay, func() error {
		var errRetry error
		user, errRetry = s.repo.GetByID(ctx, id)
		if errors.Is(errRetry, domain.ErrUserNotFound) {
			return fmt.Errorf("%w: %w", sharedUtils.ErrPermanent, errRetry)
		}
		return errRetry
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.log.Error("❌ Failed to fetch user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, user, userCacheTTL, s.log)
	return user, nil
}

// ListUsers resuelve una query string de listado (orden por defecto createdAt).
// Los errores de input son *query.ArgumentError.
func (s *UserService) ListUsers(ctx context.Context, rawQuery string) (*query.PagedResult[*domain.User], error) {
	spec, err := s.parser.Parse(rawQuery, userType, DefaultUserSort)
	if err != nil {
		return nil, err
	}

	key := sharedCache.ListKey(domain.CacheAggregate, spec.Key())
	var cached query.PagedResult[*domain.User]
	if sharedCache.Lookup(ctx, s.cache, key, &cached, s.log) {
		return &cached, nil
	}

	page, err := query.ExecuteGetManyAndCount[*domain.User](ctx, spec, s.repo)
	if err != nil {
		s.log.Error("❌ Failed to list users", zap.String("query", rawQuery), zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, page, listCacheTTL, s.log)
	return page, nil
}

// FilterUsers es ListUsers limitado por edad (límites opcionales).
func (s *UserService) FilterUsers(ctx context.Context, minAge, maxAge *int, rawQuery string) (*query.PagedResult[*domain.User], error) {
	return s.ListUsers(ctx, domain.WithFilters(rawQuery, domain.AgeFilter(minAge, maxAge, time.Now().UTC())...))
}

// Separadores de la query string que no pueden llegar dentro de un nombre: el
// tokenizer decodifica antes de partir, así que escaparlos no basta.
var searchSeparators = strings.NewReplacer("&", "", "|", "", "=", "")

// SearchUsersByName busca por nombre con la búsqueda rápida, más recientes primero.
func (s *UserService) SearchUsersByName(ctx context.Context, name string) (*query.PagedResult[*domain.User], error) {
	name = searchSeparators.Replace(name)
	return s.ListUsers(ctx, "query="+url.QueryEscape(name)+"||nombre&sortDirection=desc")
}
