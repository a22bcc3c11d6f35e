package sqlbuilder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/internal/shared/infra/utils"
)

var ErrInvalidIdentifier = errors.New("invalid sql identifier")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Statement es una sentencia lista para QueryContext.
type Statement struct {
	SQL  string
	Args []interface{}
}

type builder struct {
	d    Dialect
	sb   strings.Builder
	args []interface{}
}

func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, b.d.bind(v))
	return b.d.placeholder(len(b.args))
}

func (b *builder) statement() Statement {
	return Statement{SQL: b.sb.String(), Args: b.args}
}

// Count genera SELECT COUNT(*) con los filtros de c, sin orden ni página.
func (d Dialect) Count(table string, c sharedDomain.Criteria) (Statement, error) {
	if err := checkIdents(append([]string{table}, c.Columns()...)); err != nil {
		return Statement{}, err
	}
	b := &builder{d: d}
	b.sb.WriteString("SELECT COUNT(*) FROM ")
	b.sb.WriteString(table)
	b.where(c)
	return b.statement(), nil
}

// Select genera la consulta de la página: filtros, orden y LIMIT/OFFSET.
func (d Dialect) Select(table string, columns []string, c sharedDomain.Criteria) (Statement, error) {
	idents := append([]string{table}, columns...)
	if err := checkIdents(append(idents, c.Columns()...)); err != nil {
		return Statement{}, err
	}
	b := &builder{d: d}
	b.sb.WriteString("SELECT ")
	b.sb.WriteString(strings.Join(columns, ", "))
	b.sb.WriteString(" FROM ")
	b.sb.WriteString(table)
	b.where(c)
	b.orderBy(c.Sort)
	if c.Page.Limit > 0 {
		fmt.Fprintf(&b.sb, " LIMIT %s OFFSET %s", b.arg(c.Page.Limit), b.arg(c.Page.Offset))
	}
	return b.statement(), nil
}

// Where devuelve solo la cláusula WHERE (o "" sin filtros) y sus argumentos.
func (d Dialect) Where(c sharedDomain.Criteria) (string, []interface{}, error) {
	if err := checkIdents(c.Columns()); err != nil {
		return "", nil, err
	}
	b := &builder{d: d}
	b.where(c)
	return strings.TrimPrefix(b.sb.String(), " "), b.args, nil
}

func (b *builder) where(c sharedDomain.Criteria) {
	if c.IsEmpty() {
		return
	}
	b.sb.WriteString(" WHERE ")
	for i, g := range c.Groups {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		b.group(g)
	}
}

func (b *builder) group(g sharedDomain.Group) {
	switch len(g) {
	case 0:
		b.sb.WriteString("1 = 0")
	case 1:
		b.criterion(g[0])
	default:
		b.sb.WriteString("(")
		for i, cr := range g {
			if i > 0 {
				b.sb.WriteString(" OR ")
			}
			b.criterion(cr)
		}
		b.sb.WriteString(")")
	}
}

func (b *builder) criterion(cr sharedDomain.Criterion) {
	col := cr.Column
	if cr.FoldCase {
		col = b.d.lower(b.d.textExpr(cr.Column, cr.Kind))
	}

	switch cr.Op {
	case sharedDomain.OpContains:
		pattern := "%" + EscapeLike(fmt.Sprint(cr.Value)) + "%"
		fmt.Fprintf(&b.sb, "%s LIKE %s%s", col, b.arg(pattern), b.d.likeEscape)
	case sharedDomain.OpNeq:
		// Los nulos cuentan como distintos.
		fmt.Fprintf(&b.sb, "(%s IS NULL OR %s <> %s)", cr.Column, col, b.arg(b.operand(cr)))
	default:
		fmt.Fprintf(&b.sb, "%s %s %s", col, cr.Op, b.arg(b.operand(cr)))
	}
}

func (b *builder) operand(cr sharedDomain.Criterion) interface{} {
	if cr.FoldCase {
		return strings.ToLower(fmt.Sprint(cr.Value))
	}
	return cr.Value
}

func (b *builder) orderBy(s sharedDomain.Sort) {
	if s.Column == "" {
		return
	}
	fmt.Fprintf(&b.sb, " ORDER BY %s %s", s.Column, utils.Ternary(s.Desc, "DESC", "ASC"))
	if b.d.nulls {
		// Mismo criterio que en memoria: nulos primero en ASC, últimos en DESC.
		if s.Desc {
			b.sb.WriteString(" NULLS LAST")
		} else {
			b.sb.WriteString(" NULLS FIRST")
		}
	}
	if s.Tiebreak != "" {
		fmt.Fprintf(&b.sb, ", %s ASC", s.Tiebreak)
	}
}

// EscapeLike escapa los comodines de LIKE con '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func checkIdents(idents []string) error {
	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	return nil
}
