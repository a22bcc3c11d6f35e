package query

import (
	"context"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePeople(t *testing.T, raw string) *FilterSpecification {
	t.Helper()
	spec, err := ParseFor[person](raw, "id")
	require.NoError(t, err)
	return spec
}

func TestParse_Defaults(t *testing.T) {
	spec := parsePeople(t, "")

	assert.Equal(t, PaginationRequest{PageNumber: 1, PageSize: 25}, spec.Pagination())
	assert.Equal(t, SortRequest{By: "id", Direction: Ascending}, spec.Sort())
	assert.Nil(t, spec.QuickSearch())
	assert.Empty(t, spec.Filters())
}

func TestParse_PaginationRoundTrip(t *testing.T) {
	cases := []struct {
		page, size, offset int
	}{
		{0, 1, 0},
		{1, 25, 0},
		{3, 10, 20},
		{7, 100, 600},
	}
	for _, tc := range cases {
		raw := "pageNumber=" + strconv.Itoa(tc.page) + "&pageSize=" + strconv.Itoa(tc.size)
		t.Run(raw, func(t *testing.T) {
			spec := parsePeople(t, raw)
			assert.Equal(t, PaginationRequest{PageNumber: tc.page, PageSize: tc.size}, spec.Pagination())
			assert.Equal(t, tc.offset, spec.Pagination().Offset())
		})
	}
}

func TestParse_InvalidPagination(t *testing.T) {
	cases := map[string]error{
		"pageNumber=abc": ErrInvalidPageNumber,
		"pageNumber=-1":  ErrInvalidPageNumber,
		"pageSize=0":     ErrInvalidPageSize,
		"pageSize=-5":    ErrInvalidPageSize,
		"pageSize=diez":  ErrInvalidPageSize,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			spec, err := ParseFor[person](raw, "id")
			assert.Nil(t, spec)
			assert.ErrorIs(t, err, want)
			assert.True(t, IsArgumentError(err))
		})
	}
}

func TestParse_PageNumberOverflowingOffset(t *testing.T) {
	// (n-1)*4 desbordaría int y daría un offset negativo.
	_, err := ParseFor[person]("pageNumber=4611686018427387904&pageSize=4", "id")
	assert.ErrorIs(t, err, ErrInvalidPageNumber)

	last := strconv.Itoa(math.MaxInt/4 + 1)
	spec := parsePeople(t, "pageNumber="+last+"&pageSize=4")
	assert.GreaterOrEqual(t, spec.Pagination().Offset(), 0)

	res, err := ExecuteGetManyAndCount[person](context.Background(), spec, NewSliceSource(people()))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.TotalCount)
}

func TestParser_Options(t *testing.T) {
	p := NewParser(WithDefaultPageSize(10), WithMaxPageSize(50), WithOperator("IS", Equals))
	typ := reflect.TypeOf(person{})

	spec, err := p.Parse("name=ana||is", typ, "id")
	require.NoError(t, err)
	assert.Equal(t, 10, spec.Pagination().PageSize)
	assert.Equal(t, Equals, spec.Filters()[0].Operator)

	_, err = p.Parse("pageSize=51", typ, "id")
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	only := NewParser(WithOperators(OperatorSet{"=": Equals}))
	_, err = only.Parse("age=30||eq", typ, "id")
	assert.ErrorIs(t, err, ErrMalformedFilterValue)
	_, err = only.Parse("age=30||=", typ, "id")
	assert.NoError(t, err)
}

func TestParse_Sort(t *testing.T) {
	spec := parsePeople(t, "sortBy=BIRTHDATE&sortDirection=desc")
	assert.Equal(t, SortRequest{By: "birthDate", Direction: Descending}, spec.Sort())
	assert.True(t, spec.Sort().Desc())

	// Las claves reservadas no distinguen mayúsculas.
	spec = parsePeople(t, "SORTBY=age")
	assert.Equal(t, "age", spec.Sort().By)
}

func TestParse_InvalidSort(t *testing.T) {
	spec, err := ParseFor[person]("sortBy=doesNotExist", "id")
	assert.Nil(t, spec)
	assert.ErrorIs(t, err, ErrInvalidSortField)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, KeySortBy, argErr.Key)
	assert.Equal(t, "doesNotExist", argErr.Value)

	_, err = ParseFor[person]("", "doesNotExist")
	assert.ErrorIs(t, err, ErrInvalidSortField)

	for _, dir := range []string{"DESC", "Asc", "up", ""} {
		_, err = ParseFor[person]("sortDirection="+dir, "id")
		assert.ErrorIs(t, err, ErrInvalidSortDirection, dir)
	}
}

func TestParse_QuickSearchDefaultScope(t *testing.T) {
	spec := parsePeople(t, "query=ACME")

	qs := spec.QuickSearch()
	require.NotNil(t, qs)
	assert.Equal(t, "acme", qs.Value)
	assert.Equal(t, []string{"name", "email", "age", "nickname"}, qs.FieldNames)
}

func TestParse_QuickSearchRestrictedScope(t *testing.T) {
	spec := parsePeople(t, "query=Acme||NAME|email|name")

	qs := spec.QuickSearch()
	require.NotNil(t, qs)
	assert.Equal(t, "acme", qs.Value)
	assert.Equal(t, []string{"name", "email"}, qs.FieldNames)
}

func TestParse_QuickSearchInvalidColumns(t *testing.T) {
	for _, raw := range []string{"query=acme||", "query=acme||  ", "query=acme||name||", "query=acme||name|bogus"} {
		_, err := ParseFor[person](raw, "id")
		assert.ErrorIs(t, err, ErrInvalidSearchColumn, raw)
	}
}

func TestParse_QuickSearchBlankValue(t *testing.T) {
	assert.Nil(t, parsePeople(t, "query=").QuickSearch())
	assert.Nil(t, parsePeople(t, "query=  ||name").QuickSearch())
}

func TestParse_Filters(t *testing.T) {
	spec := parsePeople(t, "AGE=30|40||eq&name=ana||CONTAINS&age=35||lt")

	assert.Equal(t, []FieldFilter{
		{FieldName: "age", Values: []string{"30", "40"}, Operator: Equals},
		{FieldName: "name", Values: []string{"ana"}, Operator: Contains},
		{FieldName: "age", Values: []string{"35"}, Operator: LessThan},
	}, spec.Filters())
}

func TestParse_InvalidFilters(t *testing.T) {
	cases := map[string]error{
		"unknown=1||eq":         ErrUnresolvedFilterField,
		"age=30":                ErrMalformedFilterValue,
		"age=30||zz":            ErrMalformedFilterValue,
		"age=abc||eq":           ErrMalformedFilterValue,
		"birthDate=ayer||gt":    ErrMalformedFilterValue,
		"active=quizas||eq":     ErrMalformedFilterValue,
		"secret=x||eq":          ErrUnresolvedFilterField,
		"age=30||eq&nope=1||eq": ErrUnresolvedFilterField,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			spec, err := ParseFor[person](raw, "id")
			assert.Nil(t, spec)
			assert.ErrorIs(t, err, want)
		})
	}

	// contains no valida el tipo del campo.
	_, err := ParseFor[person]("age=3x||contains", "id")
	assert.NoError(t, err)
}

func TestParse_NotStruct(t *testing.T) {
	_, err := Parse("", reflect.TypeOf(""), "id")
	assert.ErrorIs(t, err, ErrNotStruct)
	assert.False(t, IsArgumentError(err))
}

func TestFilterSpecification_AccessorsReturnCopies(t *testing.T) {
	spec := parsePeople(t, "age=30|40||eq&query=ana||name")

	filters := spec.Filters()
	filters[0].Values[0] = "99"
	qs := spec.QuickSearch()
	qs.FieldNames[0] = "email"

	assert.Equal(t, []string{"30", "40"}, spec.Filters()[0].Values)
	assert.Equal(t, []string{"name"}, spec.QuickSearch().FieldNames)
}

func TestFilterSpecification_KeyIsCanonical(t *testing.T) {
	a := parsePeople(t, "pageSize=5&sortBy=name&query=ANA")
	b := parsePeople(t, "sortby=NAME&query=ana&pagesize=5")
	c := parsePeople(t, "pageSize=6&sortBy=name&query=ana")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
