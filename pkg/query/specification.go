package query

import (
	"fmt"
	"strings"
)

// SortDirection es el sentido de ordenación.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// PaginationRequest es la página pedida. PageSize siempre es > 0.
type PaginationRequest struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// Offset es el número de registros a saltar. La página 0 se trata como la primera.
func (p PaginationRequest) Offset() int {
	if p.PageNumber <= 1 {
		return 0
	}
	return (p.PageNumber - 1) * p.PageSize
}

// SortRequest ordena por un campo ya resuelto contra el índice.
type SortRequest struct {
	By        string        `json:"by"`
	Direction SortDirection `json:"direction"`
}

// Desc indica orden descendente.
func (s SortRequest) Desc() bool {
	return s.Direction == Descending
}

// QuickSearch es una búsqueda de texto libre sobre varios campos (OR).
// Value ya está en minúsculas.
type QuickSearch struct {
	Value      string   `json:"value"`
	FieldNames []string `json:"fieldNames"`
}

// FieldFilter es una condición sobre un campo: OR entre Values con un operador.
type FieldFilter struct {
	FieldName string             `json:"fieldName"`
	Values    []string           `json:"values"`
	Operator  RelationalOperator `json:"operator"`
}

// FilterSpecification es el resultado validado de una query string. Es inmutable:
// los accesores devuelven copias.
type FilterSpecification struct {
	index       *FieldIndex
	pagination  PaginationRequest
	sort        SortRequest
	quickSearch *QuickSearch
	filters     []FieldFilter
}

// Index devuelve el índice de campos contra el que se validó.
func (s *FilterSpecification) Index() *FieldIndex {
	return s.index
}

func (s *FilterSpecification) Pagination() PaginationRequest {
	return s.pagination
}

func (s *FilterSpecification) Sort() SortRequest {
	return s.sort
}

// QuickSearch devuelve nil cuando la query no tenía búsqueda rápida.
func (s *FilterSpecification) QuickSearch() *QuickSearch {
	if s.quickSearch == nil {
		return nil
	}
	qs := *s.quickSearch
	qs.FieldNames = append([]string(nil), s.quickSearch.FieldNames...)
	return &qs
}

func (s *FilterSpecification) Filters() []FieldFilter {
	out := make([]FieldFilter, len(s.filters))
	for i, f := range s.filters {
		f.Values = append([]string(nil), f.Values...)
		out[i] = f
	}
	return out
}

// Key es una representación canónica de la especificación, estable entre
// peticiones equivalentes. Sirve como clave de caché de listados.
func (s *FilterSpecification) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|p=%d|s=%d|o=%s:%s",
		s.index.typ.String(), s.pagination.PageNumber, s.pagination.PageSize, s.sort.By, s.sort.Direction)
	if s.quickSearch != nil {
		fmt.Fprintf(&b, "|q=%q:%s", s.quickSearch.Value, strings.Join(s.quickSearch.FieldNames, ","))
	}
	for _, f := range s.filters {
		fmt.Fprintf(&b, "|f=%s:%s:%q", f.FieldName, f.Operator, strings.Join(f.Values, "|"))
	}
	return b.String()
}
