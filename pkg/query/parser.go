package query

import (
	"reflect"
	"strings"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 25
)

// Parser valida query strings contra el índice de un tipo de registro. Un Parser
// no guarda estado por petición y puede compartirse entre goroutines.
type Parser struct {
	defaultPageSize int
	maxPageSize     int
	operators       OperatorSet
}

// Option configura un Parser.
type Option func(*Parser)

// WithDefaultPageSize cambia el tamaño de página usado cuando falta pageSize.
func WithDefaultPageSize(size int) Option {
	return func(p *Parser) {
		if size > 0 {
			p.defaultPageSize = size
		}
	}
}

// WithMaxPageSize rechaza pageSize mayores que limit. 0 desactiva el límite.
func WithMaxPageSize(limit int) Option {
	return func(p *Parser) {
		if limit >= 0 {
			p.maxPageSize = limit
		}
	}
}

// WithOperator añade (o redefine) un código de operador.
func WithOperator(code string, op RelationalOperator) Option {
	return func(p *Parser) {
		p.operators[strings.ToLower(code)] = op
	}
}

// WithOperators sustituye el vocabulario completo de operadores.
func WithOperators(set OperatorSet) Option {
	return func(p *Parser) {
		p.operators = set.clone()
	}
}

// NewParser crea un Parser con los valores por defecto (pageSize=25, sin límite
// máximo, DefaultOperators).
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		defaultPageSize: DefaultPageSize,
		operators:       DefaultOperators(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse valida raw contra recordType con el Parser por defecto.
func Parse(raw string, recordType reflect.Type, defaultSortField string) (*FilterSpecification, error) {
	return defaultParser.Parse(raw, recordType, defaultSortField)
}

// ParseFor es Parse para un parámetro de tipo.
func ParseFor[T any](raw, defaultSortField string) (*FilterSpecification, error) {
	return defaultParser.Parse(raw, reflect.TypeFor[T](), defaultSortField)
}

// Parse tokeniza raw, resuelve los parámetros reservados y construye los filtros.
// El primer error de validación aborta y se devuelve como *ArgumentError.
func (p *Parser) Parse(raw string, recordType reflect.Type, defaultSortField string) (*FilterSpecification, error) {
	ix, err := BuildIndex(recordType)
	if err != nil {
		return nil, err
	}

	tokens := Tokenize(raw)

	reserved, err := p.resolveReserved(tokens, ix, defaultSortField)
	if err != nil {
		return nil, err
	}

	filters, err := p.buildFilters(tokens, ix)
	if err != nil {
		return nil, err
	}

	return &FilterSpecification{
		index:       ix,
		pagination:  reserved.pagination,
		sort:        reserved.sort,
		quickSearch: reserved.quickSearch,
		filters:     filters,
	}, nil
}
