package query

import "context"

// Query es lo que recibe un Source: la especificación (para almacenes que la
// traducen a su propio lenguaje), el predicado y el comparador compilados (para
// almacenes que evalúan en memoria) y la ventana de la página.
type Query[T any] struct {
	Spec    *FilterSpecification
	Match   Predicate[T]
	Compare Comparator[T]
	Offset  int
	Limit   int
}

// Source es el almacenamiento sobre el que se ejecuta una consulta paginada.
// Count cuenta todos los registros que cumplen q (sin paginar); Fetch devuelve la
// página ordenada.
type Source[T any] interface {
	Count(ctx context.Context, q Query[T]) (int, error)
	Fetch(ctx context.Context, q Query[T]) ([]T, error)
}

// PagedResult es una página de resultados más el total sin paginar.
type PagedResult[T any] struct {
	Items      []T         `json:"items"`
	TotalCount int         `json:"totalCount"`
	PageNumber int         `json:"pageNumber"`
	PageSize   int         `json:"pageSize"`
	Sort       SortRequest `json:"sort"`
}

// ExecuteGetManyAndCount cuenta y luego recupera la página pedida por spec.
//
// Son dos lecturas independientes sobre src, sin transacción: con escrituras
// concurrentes TotalCount e Items pueden no cuadrar. Quien necesite consistencia
// debe pasar un Source sobre un snapshot. Los errores de src se devuelven tal cual.
func ExecuteGetManyAndCount[T any](ctx context.Context, spec *FilterSpecification, src Source[T]) (*PagedResult[T], error) {
	match, compare, err := Compile[T](spec)
	if err != nil {
		return nil, err
	}

	q := Query[T]{
		Spec:    spec,
		Match:   match,
		Compare: compare,
		Offset:  spec.pagination.Offset(),
		Limit:   spec.pagination.PageSize,
	}

	out := &PagedResult[T]{
		Items:      []T{},
		PageNumber: spec.pagination.PageNumber,
		PageSize:   spec.pagination.PageSize,
		Sort:       spec.sort,
	}

	total, err := src.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	out.TotalCount = total

	// Nada que traer: se ahorra la segunda lectura.
	if total == 0 || q.Offset >= total {
		return out, nil
	}

	items, err := src.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if items != nil {
		out.Items = items
	}
	return out, nil
}
