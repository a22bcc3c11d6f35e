package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

// JSONTaskStorage es un adaptador outbound que guarda las tareas y su outbox en
// un fichero JSON. Cada escritura reescribe el fichero completo, así que tarea y
// evento se guardan juntos o no se guardan.
type JSONTaskStorage struct {
	filePath string
	mu       sync.Mutex // Mutex para evitar race conditions al leer/escribir el archivo.
}

var (
	_ taskDomain.TaskRepository     = (*JSONTaskStorage)(nil)
	_ sharedDomain.OutboxRepository = (*JSONTaskStorage)(nil)
)

// storageFile es el contenido del fichero. Las tareas se guardan en orden de alta.
type storageFile struct {
	Tasks  []*taskDomain.Task         `json:"tasks"`
	Outbox []sharedDomain.OutboxEvent `json:"outbox"`
}

// NewJSONTaskStorage es el constructor.
func NewJSONTaskStorage(filePath string) *JSONTaskStorage {
	return &JSONTaskStorage{
		filePath: filePath,
	}
}

func (s *JSONTaskStorage) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return s.write(func(f *storageFile) error {
		if f.find(t.ID) >= 0 {
			return taskDomain.ErrTaskAlreadyExists
		}
		cp := *t
		f.Tasks = append(f.Tasks, &cp)
		f.Outbox = append(f.Outbox, evt)
		return nil
	})
}

func (s *JSONTaskStorage) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return s.write(func(f *storageFile) error {
		i := f.find(t.ID)
		if i < 0 {
			return taskDomain.ErrTaskNotFound
		}
		cp := *t
		f.Tasks[i] = &cp
		f.Outbox = append(f.Outbox, evt)
		return nil
	})
}

func (s *JSONTaskStorage) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return s.write(func(f *storageFile) error {
		i := f.find(id)
		if i < 0 {
			return taskDomain.ErrTaskNotFound
		}
		f.Tasks = append(f.Tasks[:i], f.Tasks[i+1:]...)
		f.Outbox = append(f.Outbox, evt)
		return nil
	})
}

func (s *JSONTaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	f, err := s.read()
	if err != nil {
		return nil, err
	}
	i := f.find(id)
	if i < 0 {
		return nil, taskDomain.ErrTaskNotFound // Reutilizamos el error de dominio
	}
	return f.Tasks[i], nil
}

// Count y Fetch evalúan la consulta en memoria sobre el contenido del fichero.
func (s *JSONTaskStorage) Count(ctx context.Context, q query.Query[*taskDomain.Task]) (int, error) {
	f, err := s.read()
	if err != nil {
		return 0, err
	}
	return query.NewSliceSource(f.Tasks).Count(ctx, q)
}

func (s *JSONTaskStorage) Fetch(ctx context.Context, q query.Query[*taskDomain.Task]) ([]*taskDomain.Task, error) {
	f, err := s.read()
	if err != nil {
		return nil, err
	}
	return query.NewSliceSource(f.Tasks).Fetch(ctx, q)
}

// FetchPendingOutbox devuelve los eventos sin procesar en orden de escritura.
func (s *JSONTaskStorage) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	f, err := s.read()
	if err != nil {
		return nil, err
	}
	var pending []sharedDomain.OutboxEvent
	for _, evt := range f.Outbox {
		if len(pending) == limit {
			break
		}
		if !evt.Processed {
			pending = append(pending, evt)
		}
	}
	return pending, nil
}

// MarkOutboxProcessed elimina el evento del fichero: una vez publicado ya no hace falta.
func (s *JSONTaskStorage) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	return s.write(func(f *storageFile) error {
		for i, evt := range f.Outbox {
			if evt.ID == id {
				f.Outbox = append(f.Outbox[:i], f.Outbox[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("outbox event not found: %s", id)
	})
}

func (f *storageFile) find(id uuid.UUID) int {
	for i, t := range f.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *JSONTaskStorage) read() (*storageFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// write aplica fn al contenido y lo persiste si fn no devuelve error.
func (s *JSONTaskStorage) write(fn func(f *storageFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	// Se escribe en un temporal y se renombra para no dejar el fichero a medias.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// load es un helper interno no concurrente.
func (s *JSONTaskStorage) load() (*storageFile, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		// Si el fichero no existe, empezamos con un contenido vacío.
		if os.IsNotExist(err) {
			return &storageFile{Tasks: []*taskDomain.Task{}}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return &storageFile{Tasks: []*taskDomain.Task{}}, nil
	}

	var f storageFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("corrupt task file %s: %w", filepath.Base(s.filePath), err)
	}
	return &f, nil
}
