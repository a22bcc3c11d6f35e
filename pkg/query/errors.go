package query

import (
	"errors"
	"fmt"
)

// ---------- Errores de argumentos (input del cliente) ----------
var (
	ErrInvalidPageNumber     = errors.New("invalid page number")
	ErrInvalidPageSize       = errors.New("invalid page size")
	ErrInvalidSortField      = errors.New("invalid sort field")
	ErrInvalidSortDirection  = errors.New("invalid sort direction")
	ErrInvalidSearchColumn   = errors.New("invalid search column")
	ErrMalformedFilterValue  = errors.New("malformed filter value")
	ErrUnresolvedFilterField = errors.New("unresolved filter field")
)

// ---------- Errores de programación ----------
var (
	ErrNotStruct          = errors.New("record type must be a struct")
	ErrRecordTypeMismatch = errors.New("specification was parsed for a different record type")
)

// ArgumentError describe el parámetro de la query string que provocó el rechazo.
// Err siempre es uno de los sentinelas Err* de arriba.
type ArgumentError struct {
	Err   error
	Key   string
	Value string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s=%q", e.Err, e.Key, e.Value)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func argError(err error, key, value string) error {
	return &ArgumentError{Err: err, Key: key, Value: value}
}

// IsArgumentError indica si err es un rechazo de input del cliente.
func IsArgumentError(err error) bool {
	var argErr *ArgumentError
	return errors.As(err, &argErr)
}
