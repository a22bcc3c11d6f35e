package query

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Predicate indica si un registro cumple la especificación.
type Predicate[T any] func(T) bool

// Comparator ordena dos registros: <0 si a va antes que b, 0 si empatan, >0 si después.
type Comparator[T any] func(a, b T) int

type matcher func(rec reflect.Value) bool

// Compile devuelve el predicado y el comparador de spec para registros de tipo T.
func Compile[T any](spec *FilterSpecification) (Predicate[T], Comparator[T], error) {
	match, err := CompilePredicate[T](spec)
	if err != nil {
		return nil, nil, err
	}
	compare, err := CompileComparator[T](spec)
	if err != nil {
		return nil, nil, err
	}
	return match, compare, nil
}

// CompilePredicate combina con AND todos los filtros y la búsqueda rápida.
// Sin ninguno, el predicado acepta cualquier registro.
func CompilePredicate[T any](spec *FilterSpecification) (Predicate[T], error) {
	ix, err := indexFor[T](spec)
	if err != nil {
		return nil, err
	}

	var parts []matcher
	for _, ff := range spec.filters {
		m, err := compileFilter(ix, ff)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	if spec.quickSearch != nil {
		m, err := compileQuickSearch(ix, *spec.quickSearch)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}

	return func(rec T) bool {
		rv, ok := ix.record(rec)
		if !ok {
			return false
		}
		for _, m := range parts {
			if !m(rv) {
				return false
			}
		}
		return true
	}, nil
}

// CompileComparator ordena por el campo de spec.Sort() en su orden natural.
func CompileComparator[T any](spec *FilterSpecification) (Comparator[T], error) {
	ix, err := indexFor[T](spec)
	if err != nil {
		return nil, err
	}
	f, ok := ix.Resolve(spec.sort.By)
	if !ok {
		return nil, argError(ErrInvalidSortField, KeySortBy, spec.sort.By)
	}
	desc := spec.sort.Desc()

	return func(a, b T) int {
		av, aok := ix.record(a)
		bv, bok := ix.record(b)
		var c int
		switch {
		case !aok || !bok:
			c = compareMissing(aok, bok)
		default:
			x, xok := f.value(av)
			y, yok := f.value(bv)
			if !xok || !yok {
				c = compareMissing(xok, yok)
			} else {
				c = compareValues(f.Kind, x, y)
			}
		}
		if desc {
			return -c
		}
		return c
	}, nil
}

func indexFor[T any](spec *FilterSpecification) (*FieldIndex, error) {
	ix, err := IndexOf[T]()
	if err != nil {
		return nil, err
	}
	if spec.index == nil || ix.typ != spec.index.typ {
		return nil, fmt.Errorf("%w: %v", ErrRecordTypeMismatch, ix.typ)
	}
	return ix, nil
}

// compileFilter: OR entre los valores del filtro.
func compileFilter(ix *FieldIndex, ff FieldFilter) (matcher, error) {
	f, ok := ix.Resolve(ff.FieldName)
	if !ok {
		return nil, argError(ErrUnresolvedFilterField, ff.FieldName, strings.Join(ff.Values, valueSeparator))
	}

	operands := make([]any, len(ff.Values))
	for i, raw := range ff.Values {
		if ff.Operator == Contains {
			operands[i] = strings.ToLower(raw)
			continue
		}
		v, err := f.Operand(raw)
		if err != nil {
			return nil, argError(ErrMalformedFilterValue, ff.FieldName, raw)
		}
		operands[i] = v
	}

	return func(rec reflect.Value) bool {
		v, present := f.value(rec)
		for _, operand := range operands {
			if test(f.Kind, ff.Operator, v, present, operand) {
				return true
			}
		}
		return false
	}, nil
}

// compileQuickSearch: OR entre campos de "contiene", sin distinguir mayúsculas.
func compileQuickSearch(ix *FieldIndex, qs QuickSearch) (matcher, error) {
	fields := make([]FieldAccessor, 0, len(qs.FieldNames))
	for _, name := range qs.FieldNames {
		f, ok := ix.Resolve(name)
		if !ok {
			return nil, argError(ErrInvalidSearchColumn, KeyQuery, name)
		}
		fields = append(fields, f)
	}
	needle := strings.ToLower(qs.Value)

	return func(rec reflect.Value) bool {
		for _, f := range fields {
			v, ok := f.value(rec)
			if ok && strings.Contains(strings.ToLower(stringOf(v)), needle) {
				return true
			}
		}
		return false
	}, nil
}

func test(kind Kind, op RelationalOperator, v reflect.Value, present bool, operand any) bool {
	if !present {
		return op == NotEquals
	}

	switch op {
	case Contains:
		return strings.Contains(strings.ToLower(stringOf(v)), operand.(string))
	case Equals:
		return compareOperand(kind, v, operand, true) == 0
	case NotEquals:
		return compareOperand(kind, v, operand, true) != 0
	case GreaterThan:
		return compareOperand(kind, v, operand, false) > 0
	case GreaterOrEqual:
		return compareOperand(kind, v, operand, false) >= 0
	case LessThan:
		return compareOperand(kind, v, operand, false) < 0
	case LessOrEqual:
		return compareOperand(kind, v, operand, false) <= 0
	}
	return false
}

// compareOperand compara el valor del campo con un operando ya tipado por
// FieldAccessor.Operand. fold activa la comparación sin mayúsculas para textos.
func compareOperand(kind Kind, v reflect.Value, operand any, fold bool) int {
	switch kind {
	case KindString:
		return compareText(v.String(), operand.(string), fold)
	case KindInt:
		return cmp.Compare(v.Int(), operand.(int64))
	case KindUint:
		return cmp.Compare(v.Uint(), operand.(uint64))
	case KindFloat:
		return cmp.Compare(v.Float(), operand.(float64))
	case KindBool:
		return compareBool(v.Bool(), operand.(bool))
	case KindTime:
		return timeOf(v).Compare(operand.(time.Time))
	default:
		return compareText(stringOf(v), operand.(string), fold)
	}
}

func compareValues(kind Kind, a, b reflect.Value) int {
	switch kind {
	case KindString:
		return strings.Compare(a.String(), b.String())
	case KindInt:
		return cmp.Compare(a.Int(), b.Int())
	case KindUint:
		return cmp.Compare(a.Uint(), b.Uint())
	case KindFloat:
		return cmp.Compare(a.Float(), b.Float())
	case KindBool:
		return compareBool(a.Bool(), b.Bool())
	case KindTime:
		return timeOf(a).Compare(timeOf(b))
	default:
		return strings.Compare(stringOf(a), stringOf(b))
	}
}

// Los valores ausentes (punteros nil) van primero.
func compareMissing(aok, bok bool) int {
	switch {
	case aok == bok:
		return 0
	case !aok:
		return -1
	default:
		return 1
	}
}

func compareText(a, b string, fold bool) int {
	if fold {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
	return strings.Compare(a, b)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func timeOf(v reflect.Value) time.Time {
	if v.CanInterface() {
		if t, ok := v.Interface().(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// stringOf es la representación textual usada por Contains y la búsqueda rápida.
func stringOf(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Time:
			return x.Format(time.RFC3339)
		case fmt.Stringer:
			return x.String()
		}
		return fmt.Sprint(v.Interface())
	}
	return ""
}
