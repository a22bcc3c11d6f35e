package query

import (
	"math"
	"strconv"
	"strings"
)

// Claves reservadas de la query string.
const (
	KeyPageNumber    = "pageNumber"
	KeyPageSize      = "pageSize"
	KeySortBy        = "sortBy"
	KeySortDirection = "sortDirection"
	KeyQuery         = "query"
)

var reservedKeys = []string{KeyPageNumber, KeyPageSize, KeySortBy, KeySortDirection, KeyQuery}

// IsReserved indica si name es una de las claves reservadas (sin distinguir mayúsculas).
func IsReserved(name string) bool {
	for _, k := range reservedKeys {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

const (
	valueSeparator  = "|"
	suffixSeparator = "||"
)

type reservedParams struct {
	pagination  PaginationRequest
	sort        SortRequest
	quickSearch *QuickSearch
}

func (p *Parser) resolveReserved(tokens Tokens, ix *FieldIndex, defaultSortField string) (reservedParams, error) {
	var out reservedParams
	var err error

	if out.pagination, err = p.resolvePagination(tokens); err != nil {
		return reservedParams{}, err
	}
	if out.sort, err = resolveSort(tokens, ix, defaultSortField); err != nil {
		return reservedParams{}, err
	}
	if out.quickSearch, err = resolveQuickSearch(tokens, ix); err != nil {
		return reservedParams{}, err
	}
	return out, nil
}

func (p *Parser) resolvePagination(tokens Tokens) (PaginationRequest, error) {
	page := PaginationRequest{PageNumber: DefaultPageNumber, PageSize: p.defaultPageSize}

	if raw, ok := tokens.Lookup(KeyPageSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n <= 0 || (p.maxPageSize > 0 && n > p.maxPageSize) {
			return PaginationRequest{}, argError(ErrInvalidPageSize, KeyPageSize, raw)
		}
		page.PageSize = n
	}

	// El tamaño va primero: el límite de página depende de él para que el
	// offset (pageNumber-1)*pageSize no desborde int.
	if raw, ok := tokens.Lookup(KeyPageNumber); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 || n > math.MaxInt/page.PageSize+1 {
			return PaginationRequest{}, argError(ErrInvalidPageNumber, KeyPageNumber, raw)
		}
		page.PageNumber = n
	}

	return page, nil
}

func resolveSort(tokens Tokens, ix *FieldIndex, defaultSortField string) (SortRequest, error) {
	sort := SortRequest{Direction: Ascending}

	by := defaultSortField
	if raw, ok := tokens.Lookup(KeySortBy); ok {
		by = raw
	}
	f, ok := ix.Resolve(by)
	if !ok {
		return SortRequest{}, argError(ErrInvalidSortField, KeySortBy, by)
	}
	sort.By = f.Name

	if raw, ok := tokens.Lookup(KeySortDirection); ok {
		switch SortDirection(raw) {
		case Ascending, Descending:
			sort.Direction = SortDirection(raw)
		default:
			return SortRequest{}, argError(ErrInvalidSortDirection, KeySortDirection, raw)
		}
	}

	return sort, nil
}

// resolveQuickSearch interpreta "valor" o "valor||col1|col2".
func resolveQuickSearch(tokens Tokens, ix *FieldIndex) (*QuickSearch, error) {
	raw, ok := tokens.Lookup(KeyQuery)
	if !ok {
		return nil, nil
	}

	value, columns, hasColumns := strings.Cut(raw, suffixSeparator)

	var names []string
	if hasColumns {
		if strings.TrimSpace(columns) == "" {
			return nil, argError(ErrInvalidSearchColumn, KeyQuery, raw)
		}
		seen := make(map[string]bool)
		for _, col := range strings.Split(columns, valueSeparator) {
			col = strings.TrimSpace(col)
			if col == "" {
				return nil, argError(ErrInvalidSearchColumn, KeyQuery, raw)
			}
			f, ok := ix.Resolve(col)
			if !ok {
				return nil, argError(ErrInvalidSearchColumn, KeyQuery, col)
			}
			if !seen[f.Name] {
				seen[f.Name] = true
				names = append(names, f.Name)
			}
		}
	} else {
		names = ix.DefaultSearchableFields()
	}

	// Una búsqueda vacía no restringe nada.
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	return &QuickSearch{
		Value:      strings.ToLower(value),
		FieldNames: names,
	}, nil
}
