package query

import (
	"context"
	"slices"
)

// SliceSource evalúa consultas sobre un slice en memoria. No copia los registros:
// quien lo crea no debe modificar el slice mientras se usa.
type SliceSource[T any] struct {
	items []T
}

// NewSliceSource envuelve items.
func NewSliceSource[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

func (s *SliceSource[T]) Count(ctx context.Context, q Query[T]) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, item := range s.items {
		if q.Match == nil || q.Match(item) {
			n++
		}
	}
	return n, nil
}

func (s *SliceSource[T]) Fetch(ctx context.Context, q Query[T]) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Apply(s.items, q), nil
}

// Apply filtra, ordena (de forma estable) y pagina items según q.
func Apply[T any](items []T, q Query[T]) []T {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if q.Match == nil || q.Match(item) {
			matched = append(matched, item)
		}
	}
	if q.Compare != nil {
		slices.SortStableFunc(matched, q.Compare)
	}

	if q.Offset < 0 || q.Offset >= len(matched) {
		return []T{}
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end]
}
