// Package mongofilter traduce Criteria a filtros y opciones de búsqueda de MongoDB.
package mongofilter

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/internal/shared/infra/utils"
	"github.com/davicafu/hexaquery/pkg/query"
)

// Renderer traduce columnas a claves BSON. Las columnas sin entrada en el mapa
// se usan tal cual.
type Renderer struct {
	keys map[string]string
}

func NewRenderer(keys map[string]string) *Renderer {
	return &Renderer{keys: keys}
}

func (r *Renderer) key(col string) string {
	if k, ok := r.keys[col]; ok {
		return k
	}
	return col
}

// Filter devuelve el filtro para Find y CountDocuments.
func (r *Renderer) Filter(c sharedDomain.Criteria) bson.D {
	if c.IsEmpty() {
		return bson.D{}
	}
	if len(c.Groups) == 1 {
		return r.group(c.Groups[0])
	}
	and := make(bson.A, 0, len(c.Groups))
	for _, g := range c.Groups {
		and = append(and, r.group(g))
	}
	return bson.D{{Key: "$and", Value: and}}
}

func (r *Renderer) group(g sharedDomain.Group) bson.D {
	switch len(g) {
	case 0:
		return bson.D{{Key: "$expr", Value: false}}
	case 1:
		return r.criterion(g[0])
	}
	or := make(bson.A, 0, len(g))
	for _, cr := range g {
		or = append(or, r.criterion(cr))
	}
	return bson.D{{Key: "$or", Value: or}}
}

func (r *Renderer) criterion(cr sharedDomain.Criterion) bson.D {
	key := r.key(cr.Column)

	switch {
	case cr.Op == sharedDomain.OpContains:
		pattern := regexp.QuoteMeta(fmt.Sprint(cr.Value))
		if cr.Kind == query.KindString {
			return bson.D{{Key: key, Value: bson.D{{Key: "$regex", Value: pattern}, {Key: "$options", Value: "i"}}}}
		}
		// Los campos no textuales se buscan sobre su representación en texto.
		return bson.D{{Key: "$expr", Value: bson.D{{Key: "$regexMatch", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$toString", Value: "$" + key}}},
			{Key: "regex", Value: pattern},
			{Key: "options", Value: "i"},
		}}}}}

	case cr.FoldCase:
		re := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(fmt.Sprint(cr.Value)) + "$", Options: "i"}
		if cr.Op == sharedDomain.OpNeq {
			return bson.D{{Key: key, Value: bson.D{{Key: "$not", Value: re}}}}
		}
		return bson.D{{Key: key, Value: re}}
	}

	return bson.D{{Key: key, Value: bson.D{{Key: mongoOp(cr.Op), Value: cr.Value}}}}
}

func mongoOp(op sharedDomain.Operator) string {
	switch op {
	case sharedDomain.OpNeq:
		return "$ne"
	case sharedDomain.OpGt:
		return "$gt"
	case sharedDomain.OpGte:
		return "$gte"
	case sharedDomain.OpLt:
		return "$lt"
	case sharedDomain.OpLte:
		return "$lte"
	default:
		return "$eq"
	}
}

// Sort devuelve el orden con el desempate por identificador.
func (r *Renderer) Sort(s sharedDomain.Sort) bson.D {
	if s.Column == "" {
		return nil
	}
	sort := bson.D{{Key: r.key(s.Column), Value: utils.Ternary(s.Desc, -1, 1)}}
	if s.Tiebreak != "" {
		sort = append(sort, bson.E{Key: r.key(s.Tiebreak), Value: 1})
	}
	return sort
}

// FindOptions aplica orden y página. MongoDB ya ordena los nulos primero en ASC.
func (r *Renderer) FindOptions(c sharedDomain.Criteria) *options.FindOptions {
	opts := options.Find()
	if sort := r.Sort(c.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if c.Page.Offset > 0 {
		opts.SetSkip(int64(c.Page.Offset))
	}
	if c.Page.Limit > 0 {
		opts.SetLimit(int64(c.Page.Limit))
	}
	return opts
}
