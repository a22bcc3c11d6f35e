package query

import "strings"

// buildFilters convierte cada clave no reservada en un FieldFilter. Claves que
// apuntan al mismo campo no se fusionan: cada una es un filtro más del AND.
func (p *Parser) buildFilters(tokens Tokens, ix *FieldIndex) ([]FieldFilter, error) {
	var filters []FieldFilter

	for _, tok := range tokens {
		if IsReserved(tok.Name) {
			continue
		}

		f, ok := ix.Resolve(tok.Name)
		if !ok {
			return nil, argError(ErrUnresolvedFilterField, tok.Name, tok.Value)
		}

		valuesSegment, code, ok := strings.Cut(tok.Value, suffixSeparator)
		if !ok {
			return nil, argError(ErrMalformedFilterValue, tok.Name, tok.Value)
		}
		op, ok := p.operators.Lookup(code)
		if !ok {
			return nil, argError(ErrMalformedFilterValue, tok.Name, tok.Value)
		}

		values := strings.Split(valuesSegment, valueSeparator)
		if op != Contains {
			for _, v := range values {
				if _, err := f.Operand(v); err != nil {
					return nil, argError(ErrMalformedFilterValue, tok.Name, v)
				}
			}
		}

		filters = append(filters, FieldFilter{
			FieldName: f.Name,
			Values:    values,
			Operator:  op,
		})
	}

	return filters, nil
}
