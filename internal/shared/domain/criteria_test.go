package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/hexaquery/pkg/query"
)

type ticket struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	Priority  int       `json:"priority" db:"priority"`
	OpenedAt  time.Time `json:"openedAt" db:"opened_at"`
	Escalated bool      `json:"escalated" db:"escalated"`
}

func criteriaFor(t *testing.T, raw string) Criteria {
	t.Helper()
	spec, err := query.ParseFor[ticket](raw, "openedAt")
	require.NoError(t, err)
	c, err := FromSpecification(spec)
	require.NoError(t, err)
	return c
}

func TestFromSpecification_Empty(t *testing.T) {
	c := criteriaFor(t, "")

	assert.True(t, c.IsEmpty())
	assert.Equal(t, Sort{Field: "openedAt", Column: "opened_at", Kind: query.KindTime, Tiebreak: "id"}, c.Sort)
	assert.Equal(t, Page{Offset: 0, Limit: 25}, c.Page)
}

func TestFromSpecification_FiltersBecomeGroups(t *testing.T) {
	c := criteriaFor(t, "priority=1|2||eq&subject=Login||neq&openedAt=2024-01-01||gte")

	require.Len(t, c.Groups, 3)
	assert.Equal(t, Group{
		{Field: "priority", Column: "priority", Kind: query.KindInt, Op: OpEq, Value: int64(1)},
		{Field: "priority", Column: "priority", Kind: query.KindInt, Op: OpEq, Value: int64(2)},
	}, c.Groups[0])
	assert.Equal(t, Group{
		{Field: "subject", Column: "subject", Kind: query.KindString, Op: OpNeq, Value: "Login", FoldCase: true},
	}, c.Groups[1])
	assert.Equal(t, Group{
		{Field: "openedAt", Column: "opened_at", Kind: query.KindTime, Op: OpGte, Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, c.Groups[2])
}

func TestFromSpecification_ContainsIsLowercased(t *testing.T) {
	c := criteriaFor(t, "subject=LoGiN||contains")

	assert.Equal(t, Group{
		{Field: "subject", Column: "subject", Kind: query.KindString, Op: OpContains, Value: "login", FoldCase: true},
	}, c.Groups[0])
}

func TestFromSpecification_IdentifierEqualityFoldsText(t *testing.T) {
	id := uuid.New()
	c := criteriaFor(t, "id="+id.String()+"||eq")

	require.Len(t, c.Groups, 1)
	assert.Equal(t, query.KindOther, c.Groups[0][0].Kind)
	assert.Equal(t, id.String(), c.Groups[0][0].Value)
	assert.True(t, c.Groups[0][0].FoldCase)
}

func TestFromSpecification_QuickSearchIsOneOrGroup(t *testing.T) {
	c := criteriaFor(t, "query=VPN&escalated=true||eq")

	require.Len(t, c.Groups, 2)
	assert.Equal(t, Group{{Field: "escalated", Column: "escalated", Kind: query.KindBool, Op: OpEq, Value: true}}, c.Groups[0])
	assert.Equal(t, Group{
		{Field: "subject", Column: "subject", Kind: query.KindString, Op: OpContains, Value: "vpn", FoldCase: true},
		{Field: "priority", Column: "priority", Kind: query.KindInt, Op: OpContains, Value: "vpn", FoldCase: true},
	}, c.Groups[1])
}

func TestFromSpecification_SortAndPage(t *testing.T) {
	c := criteriaFor(t, "sortBy=priority&sortDirection=desc&pageNumber=3&pageSize=10")

	assert.Equal(t, Sort{Field: "priority", Column: "priority", Kind: query.KindInt, Desc: true, Tiebreak: "id"}, c.Sort)
	assert.Equal(t, Page{Offset: 20, Limit: 10}, c.Page)

	// Ordenar por el identificador no necesita desempate.
	c = criteriaFor(t, "sortBy=id")
	assert.Empty(t, c.Sort.Tiebreak)
}

func TestCriteria_Columns(t *testing.T) {
	c := criteriaFor(t, "priority=1||gt&query=x||subject|priority")

	assert.Equal(t, []string{"priority", "subject", "opened_at", "id"}, c.Columns())
}
