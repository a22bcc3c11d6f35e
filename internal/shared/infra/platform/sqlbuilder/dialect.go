package sqlbuilder

import (
	"fmt"
	"time"

	"github.com/davicafu/hexaquery/pkg/query"
)

// Dialect recoge las diferencias de sintaxis entre motores SQL.
type Dialect struct {
	Name string

	placeholder func(n int) string
	// text convierte una columna no textual a texto.
	text func(col string) string
	// lower pasa una expresión de texto a minúsculas.
	lower func(expr string) string
	// likeEscape se añade tras cada LIKE.
	likeEscape string
	// nulls emite NULLS FIRST/LAST para que los nulos vayan primero en ASC.
	nulls bool
	// bind adapta un operando antes de pasarlo al driver.
	bind func(v interface{}) interface{}
}

// SQLiteTimeLayout es el formato con el que se guardan las fechas en SQLite para
// que la comparación como texto respete el orden cronológico.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	Postgres = Dialect{
		Name:        "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		text:        func(col string) string { return "CAST(" + col + " AS TEXT)" },
		lower:       func(expr string) string { return "LOWER(" + expr + ")" },
		likeEscape:  ` ESCAPE '\'`,
		nulls:       true,
		bind:        identity,
	}

	SQLite = Dialect{
		Name:        "sqlite",
		placeholder: func(int) string { return "?" },
		text:        func(col string) string { return "CAST(" + col + " AS TEXT)" },
		lower:       func(expr string) string { return "LOWER(" + expr + ")" },
		likeEscape:  ` ESCAPE '\'`,
		bind:        bindSQLite,
	}

	ClickHouse = Dialect{
		Name:        "clickhouse",
		placeholder: func(int) string { return "?" },
		text:        func(col string) string { return "toString(" + col + ")" },
		lower:       func(expr string) string { return "lowerUTF8(" + expr + ")" },
		nulls:       true,
		bind:        identity,
	}
)

func identity(v interface{}) interface{} { return v }

func bindSQLite(v interface{}) interface{} {
	switch x := v.(type) {
	case time.Time:
		return SQLiteTime(x)
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return v
}

// SQLiteTime formatea t tal y como se guardan las fechas en SQLite.
func SQLiteTime(t time.Time) string {
	return t.UTC().Format(SQLiteTimeLayout)
}

// Bind adapta un valor al formato del dialecto. Los repositorios lo usan también
// al escribir, para que las comparaciones vean el mismo formato.
func (d Dialect) Bind(v interface{}) interface{} {
	return d.bind(v)
}

func (d Dialect) textExpr(col string, kind query.Kind) string {
	if kind == query.KindString {
		return col
	}
	return d.text(col)
}
