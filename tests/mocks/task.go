package mocks

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

// InMemoryTaskRepo simula TaskRepository con outbox incluido. Los listados se
// evalúan con el motor en memoria, en orden de inserción para los empates.
type InMemoryTaskRepo struct {
	memoryOutbox
	Tasks map[uuid.UUID]*taskDomain.Task
	order []uuid.UUID
	// Err, si no es nil, lo devuelven todas las operaciones.
	Err error
}

var _ taskDomain.TaskRepository = (*InMemoryTaskRepo)(nil)

func NewInMemoryTaskRepo() *InMemoryTaskRepo {
	return &InMemoryTaskRepo{Tasks: make(map[uuid.UUID]*taskDomain.Task)}
}

func (r *InMemoryTaskRepo) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Tasks[t.ID]; ok {
		return taskDomain.ErrTaskAlreadyExists
	}
	cp := *t
	r.Tasks[t.ID] = &cp
	r.order = append(r.order, t.ID)
	r.append(evt)
	return nil
}

func (r *InMemoryTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	t, ok := r.Tasks[id]
	if !ok {
		return nil, taskDomain.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *InMemoryTaskRepo) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Tasks[t.ID]; !ok {
		return taskDomain.ErrTaskNotFound
	}
	cp := *t
	r.Tasks[t.ID] = &cp
	r.append(evt)
	return nil
}

func (r *InMemoryTaskRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Tasks[id]; !ok {
		return taskDomain.ErrTaskNotFound
	}
	delete(r.Tasks, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.append(evt)
	return nil
}

func (r *InMemoryTaskRepo) Count(ctx context.Context, q query.Query[*taskDomain.Task]) (int, error) {
	src, err := r.source()
	if err != nil {
		return 0, err
	}
	return src.Count(ctx, q)
}

func (r *InMemoryTaskRepo) Fetch(ctx context.Context, q query.Query[*taskDomain.Task]) ([]*taskDomain.Task, error) {
	src, err := r.source()
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx, q)
}

// source toma una copia de las tareas para evaluar la consulta sin el lock.
func (r *InMemoryTaskRepo) source() (*query.SliceSource[*taskDomain.Task], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	items := make([]*taskDomain.Task, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.Tasks[id]
		items = append(items, &cp)
	}
	return query.NewSliceSource(items), nil
}
