package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Kind clasifica el tipo Go de un campo para decidir cómo se compara.
type Kind int

const (
	KindOther Kind = iota
	KindString
	KindInt
	KindUint
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "other"
	}
}

var timeType = reflect.TypeOf(time.Time{})

// Formatos aceptados para operandos de fecha, del más al menos específico.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FieldAccessor describe un campo filtrable/ordenable de un tipo de registro.
type FieldAccessor struct {
	// Name es el nombre canónico: el tag json si existe, si no el nombre Go.
	Name string
	// GoName es el nombre del campo en el struct.
	GoName string
	// Column es el nombre en almacenamiento: el tag db si existe, si no Name.
	Column     string
	Kind       Kind
	Identifier bool

	index    []int
	nullable bool
}

// value extrae el valor del campo de un struct ya desreferenciado.
// ok es false cuando el campo (o un struct embebido por puntero) es nil.
func (f FieldAccessor) value(rec reflect.Value) (reflect.Value, bool) {
	v, err := rec.FieldByIndexErr(f.index)
	if err != nil {
		return reflect.Value{}, false
	}
	if f.nullable {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

// Operand convierte un valor crudo de la query string al tipo Go del campo:
// string, int64, uint64, float64, bool o time.Time.
func (f FieldAccessor) Operand(raw string) (any, error) {
	switch f.Kind {
	case KindInt:
		return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case KindUint:
		return strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	case KindFloat:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case KindBool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case KindTime:
		return parseTime(strings.TrimSpace(raw))
	default:
		return raw, nil
	}
}

func parseTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FieldIndex es el índice de campos de un tipo de registro. Se construye una vez
// por tipo y es de solo lectura, por lo que admite consultas concurrentes.
type FieldIndex struct {
	typ        reflect.Type
	fields     []FieldAccessor
	byName     map[string]int
	identifier int
}

var indexCache sync.Map // reflect.Type -> *FieldIndex

// BuildIndex devuelve el índice del tipo (o del tipo apuntado), construyéndolo
// la primera vez.
func BuildIndex(t reflect.Type) (*FieldIndex, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}
	if cached, ok := indexCache.Load(t); ok {
		return cached.(*FieldIndex), nil
	}
	actual, _ := indexCache.LoadOrStore(t, newFieldIndex(t))
	return actual.(*FieldIndex), nil
}

// IndexOf es BuildIndex para un parámetro de tipo.
func IndexOf[T any]() (*FieldIndex, error) {
	return BuildIndex(reflect.TypeFor[T]())
}

func newFieldIndex(t reflect.Type) *FieldIndex {
	ix := &FieldIndex{
		typ:        t,
		byName:     make(map[string]int),
		identifier: -1,
	}

	explicitID := -1
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() {
			continue
		}
		ft := sf.Type
		nullable := ft.Kind() == reflect.Pointer
		if nullable {
			ft = ft.Elem()
		}
		// El struct embebido en sí no es un campo; sus campos promovidos sí.
		if sf.Anonymous && ft.Kind() == reflect.Struct && ft != timeType {
			continue
		}

		opts := strings.Split(sf.Tag.Get("query"), ",")
		if opts[0] == "-" {
			continue
		}

		name := tagName(sf.Tag.Get("json"))
		if name == "" {
			name = sf.Name
		}
		column := tagName(sf.Tag.Get("db"))
		if column == "" {
			column = name
		}

		f := FieldAccessor{
			Name:     name,
			GoName:   sf.Name,
			Column:   column,
			Kind:     kindOf(ft),
			index:    sf.Index,
			nullable: nullable,
		}
		i := len(ix.fields)
		ix.fields = append(ix.fields, f)

		for _, key := range []string{strings.ToLower(name), strings.ToLower(sf.Name)} {
			if _, taken := ix.byName[key]; !taken {
				ix.byName[key] = i
			}
		}
		for _, o := range opts {
			if o == "id" && explicitID < 0 {
				explicitID = i
			}
		}
		if ix.identifier < 0 && strings.EqualFold(sf.Name, "id") {
			ix.identifier = i
		}
	}

	if explicitID >= 0 {
		ix.identifier = explicitID
	}
	if ix.identifier >= 0 {
		ix.fields[ix.identifier].Identifier = true
	}
	return ix
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

func kindOf(t reflect.Type) Kind {
	if t == timeType {
		return KindTime
	}
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindUint
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	default:
		return KindOther
	}
}

// Type devuelve el tipo struct indexado.
func (ix *FieldIndex) Type() reflect.Type {
	return ix.typ
}

// Fields devuelve los campos en orden de declaración.
func (ix *FieldIndex) Fields() []FieldAccessor {
	out := make([]FieldAccessor, len(ix.fields))
	copy(out, ix.fields)
	return out
}

// Resolve busca un campo por nombre canónico o nombre Go, sin distinguir mayúsculas.
func (ix *FieldIndex) Resolve(name string) (FieldAccessor, bool) {
	i, ok := ix.byName[strings.ToLower(name)]
	if !ok {
		return FieldAccessor{}, false
	}
	return ix.fields[i], true
}

// Identifier devuelve el campo identificador, si el tipo tiene uno.
func (ix *FieldIndex) Identifier() (FieldAccessor, bool) {
	if ix.identifier < 0 {
		return FieldAccessor{}, false
	}
	return ix.fields[ix.identifier], true
}

// DefaultSearchableFields devuelve los campos de texto y enteros, sin el
// identificador, en orden de declaración.
func (ix *FieldIndex) DefaultSearchableFields() []string {
	var names []string
	for _, f := range ix.fields {
		if f.Identifier {
			continue
		}
		switch f.Kind {
		case KindString, KindInt, KindUint:
			names = append(names, f.Name)
		}
	}
	return names
}

// record desreferencia rec y comprueba que es del tipo indexado.
func (ix *FieldIndex) record(rec any) (reflect.Value, bool) {
	rv := reflect.ValueOf(rec)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != ix.typ {
		return reflect.Value{}, false
	}
	return rv, true
}
