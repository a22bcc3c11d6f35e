package mocks

import (
	"context"
	"strings"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	userDomain "github.com/davicafu/hexaquery/internal/user/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

// InMemoryUserRepo simula UserRepository con outbox incluido. Como SQLite, el
// email es único sin distinguir mayúsculas.
type InMemoryUserRepo struct {
	memoryOutbox
	Users map[uuid.UUID]*userDomain.User
	order []uuid.UUID
	// Err, si no es nil, lo devuelven todas las operaciones.
	Err error
}

var _ userDomain.UserRepository = (*InMemoryUserRepo)(nil)

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{Users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *InMemoryUserRepo) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Users[u.ID]; ok || r.emailTaken(u.Email, u.ID) {
		return userDomain.ErrUserAlreadyExists
	}
	cp := *u
	r.Users[u.ID] = &cp
	r.order = append(r.order, u.ID)
	r.append(evt)
	return nil
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.Users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Users[u.ID]; !ok {
		return userDomain.ErrUserNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return userDomain.ErrUserAlreadyExists
	}
	cp := *u
	r.Users[u.ID] = &cp
	r.append(evt)
	return nil
}

func (r *InMemoryUserRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Users[id]; !ok {
		return userDomain.ErrUserNotFound
	}
	delete(r.Users, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.append(evt)
	return nil
}

func (r *InMemoryUserRepo) Count(ctx context.Context, q query.Query[*userDomain.User]) (int, error) {
	src, err := r.source()
	if err != nil {
		return 0, err
	}
	return src.Count(ctx, q)
}

func (r *InMemoryUserRepo) Fetch(ctx context.Context, q query.Query[*userDomain.User]) ([]*userDomain.User, error) {
	src, err := r.source()
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx, q)
}

func (r *InMemoryUserRepo) source() (*query.SliceSource[*userDomain.User], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	items := make([]*userDomain.User, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.Users[id]
		items = append(items, &cp)
	}
	return query.NewSliceSource(items), nil
}

// emailTaken requiere el lock.
func (r *InMemoryUserRepo) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.Users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
