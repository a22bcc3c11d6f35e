package domain

import (
	"fmt"
	"strings"

	"github.com/davicafu/hexaquery/pkg/query"
)

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq       Operator = "="
	OpNeq      Operator = "<>"
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "CONTAINS"
)

var operatorByRelational = map[query.RelationalOperator]Operator{
	query.Equals:         OpEq,
	query.NotEquals:      OpNeq,
	query.GreaterThan:    OpGt,
	query.GreaterOrEqual: OpGte,
	query.LessThan:       OpLt,
	query.LessOrEqual:    OpLte,
	query.Contains:       OpContains,
}

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado sobre una columna.
// Value ya tiene el tipo Go del campo (string, int64, uint64, float64, bool o
// time.Time); para OpContains siempre es un string en minúsculas.
type Criterion struct {
	Field    string
	Column   string
	Kind     query.Kind
	Op       Operator
	Value    interface{}
	FoldCase bool // comparar como texto sin distinguir mayúsculas
}

// Group es un OR de criterios. Un grupo vacío no cumple nunca.
type Group []Criterion

// Sort indica campo y dirección. Tiebreak es la columna del identificador, para
// que la paginación sea determinista cuando hay empates.
type Sort struct {
	Field    string
	Column   string
	Kind     query.Kind
	Desc     bool
	Tiebreak string
}

// Page es la ventana offset/limit.
type Page struct {
	Offset int
	Limit  int
}

// ---------------- Criteria ----------------

// Criteria es un AND de grupos OR más orden y página: la forma común que
// traducen los adaptadores de SQL y MongoDB.
type Criteria struct {
	Groups []Group
	Sort   Sort
	Page   Page
}

// IsEmpty indica que no hay ninguna condición.
func (c Criteria) IsEmpty() bool {
	return len(c.Groups) == 0
}

// Columns devuelve las columnas a las que hacen referencia los criterios y el orden.
func (c Criteria) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(col string) {
		if col != "" && !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	for _, g := range c.Groups {
		for _, cr := range g {
			add(cr.Column)
		}
	}
	add(c.Sort.Column)
	add(c.Sort.Tiebreak)
	return cols
}

// FromSpecification baja una FilterSpecification validada a Criteria. Cada
// FieldFilter es un grupo (OR entre sus valores) y la búsqueda rápida otro más.
func FromSpecification(spec *query.FilterSpecification) (Criteria, error) {
	ix := spec.Index()
	var c Criteria

	for _, ff := range spec.Filters() {
		f, ok := ix.Resolve(ff.FieldName)
		if !ok {
			return Criteria{}, fmt.Errorf("%w: %s", query.ErrUnresolvedFilterField, ff.FieldName)
		}
		op, ok := operatorByRelational[ff.Operator]
		if !ok {
			return Criteria{}, fmt.Errorf("%w: %s", query.ErrMalformedFilterValue, ff.Operator)
		}

		group := make(Group, 0, len(ff.Values))
		for _, raw := range ff.Values {
			cr := Criterion{
				Field:  f.Name,
				Column: f.Column,
				Kind:   f.Kind,
				Op:     op,
			}
			switch {
			case op == OpContains:
				cr.Value = strings.ToLower(raw)
				cr.FoldCase = true
			default:
				v, err := f.Operand(raw)
				if err != nil {
					return Criteria{}, fmt.Errorf("%w: %s=%q", query.ErrMalformedFilterValue, f.Name, raw)
				}
				cr.Value = v
				cr.FoldCase = textual(f.Kind) && (op == OpEq || op == OpNeq)
			}
			group = append(group, cr)
		}
		c.Groups = append(c.Groups, group)
	}

	if qs := spec.QuickSearch(); qs != nil {
		group := make(Group, 0, len(qs.FieldNames))
		for _, name := range qs.FieldNames {
			f, ok := ix.Resolve(name)
			if !ok {
				return Criteria{}, fmt.Errorf("%w: %s", query.ErrInvalidSearchColumn, name)
			}
			group = append(group, Criterion{
				Field:    f.Name,
				Column:   f.Column,
				Kind:     f.Kind,
				Op:       OpContains,
				Value:    qs.Value,
				FoldCase: true,
			})
		}
		c.Groups = append(c.Groups, group)
	}

	sort := spec.Sort()
	f, ok := ix.Resolve(sort.By)
	if !ok {
		return Criteria{}, fmt.Errorf("%w: %s", query.ErrInvalidSortField, sort.By)
	}
	c.Sort = Sort{Field: f.Name, Column: f.Column, Kind: f.Kind, Desc: sort.Desc()}
	if id, ok := ix.Identifier(); ok && id.Column != f.Column {
		c.Sort.Tiebreak = id.Column
	}

	page := spec.Pagination()
	c.Page = Page{Offset: page.Offset(), Limit: page.PageSize}

	return c, nil
}

// textual: tipos que se comparan por su representación de texto.
func textual(k query.Kind) bool {
	return k == query.KindString || k == query.KindOther
}
