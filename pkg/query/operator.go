package query

import "strings"

// RelationalOperator es la comparación que un FieldFilter aplica a cada valor.
type RelationalOperator string

const (
	Equals         RelationalOperator = "eq"
	NotEquals      RelationalOperator = "neq"
	GreaterThan    RelationalOperator = "gt"
	GreaterOrEqual RelationalOperator = "gte"
	LessThan       RelationalOperator = "lt"
	LessOrEqual    RelationalOperator = "lte"
	Contains       RelationalOperator = "contains"
)

// Ordering indica si el operador compara por orden natural (>, >=, <, <=).
func (op RelationalOperator) Ordering() bool {
	switch op {
	case GreaterThan, GreaterOrEqual, LessThan, LessOrEqual:
		return true
	}
	return false
}

// OperatorSet traduce los códigos de operador de la query string. Las claves se
// comparan en minúsculas.
type OperatorSet map[string]RelationalOperator

// DefaultOperators devuelve una copia del vocabulario por defecto.
func DefaultOperators() OperatorSet {
	return OperatorSet{
		"eq":       Equals,
		"neq":      NotEquals,
		"ne":       NotEquals,
		"gt":       GreaterThan,
		"gte":      GreaterOrEqual,
		"ge":       GreaterOrEqual,
		"lt":       LessThan,
		"lte":      LessOrEqual,
		"le":       LessOrEqual,
		"contains": Contains,
		"ct":       Contains,
		"like":     Contains,
	}
}

// Lookup resuelve un código de operador.
func (s OperatorSet) Lookup(code string) (RelationalOperator, bool) {
	op, ok := s[strings.ToLower(strings.TrimSpace(code))]
	return op, ok
}

func (s OperatorSet) clone() OperatorSet {
	out := make(OperatorSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
