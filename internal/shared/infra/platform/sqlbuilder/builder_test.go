package sqlbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

func sampleCriteria() sharedDomain.Criteria {
	return sharedDomain.Criteria{
		Groups: []sharedDomain.Group{
			{
				{Column: "priority", Kind: query.KindInt, Op: sharedDomain.OpEq, Value: int64(1)},
				{Column: "priority", Kind: query.KindInt, Op: sharedDomain.OpEq, Value: int64(2)},
			},
			{{Column: "subject", Kind: query.KindString, Op: sharedDomain.OpNeq, Value: "Login", FoldCase: true}},
			{{Column: "subject", Kind: query.KindString, Op: sharedDomain.OpContains, Value: "50%_off", FoldCase: true}},
		},
		Sort: sharedDomain.Sort{Column: "opened_at", Desc: true, Tiebreak: "id"},
		Page: sharedDomain.Page{Offset: 20, Limit: 10},
	}
}

func TestPostgres_Select(t *testing.T) {
	st, err := Postgres.Select("tickets", []string{"id", "subject"}, sampleCriteria())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, subject FROM tickets WHERE (priority = $1 OR priority = $2)"+
			" AND (subject IS NULL OR LOWER(subject) <> $3)"+
			" AND LOWER(subject) LIKE $4 ESCAPE '\\'"+
			" ORDER BY opened_at DESC NULLS LAST, id ASC LIMIT $5 OFFSET $6",
		st.SQL)
	assert.Equal(t, []interface{}{int64(1), int64(2), "login", `%50\%\_off%`, 10, 20}, st.Args)
}

func TestPostgres_CountIgnoresSortAndPage(t *testing.T) {
	st, err := Postgres.Count("tickets", sampleCriteria())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(*) FROM tickets WHERE (priority = $1 OR priority = $2)"+
			" AND (subject IS NULL OR LOWER(subject) <> $3)"+
			" AND LOWER(subject) LIKE $4 ESCAPE '\\'",
		st.SQL)
	assert.Len(t, st.Args, 4)
}

func TestSQLite_BindsTimesAndBools(t *testing.T) {
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	c := sharedDomain.Criteria{
		Groups: []sharedDomain.Group{
			{{Column: "opened_at", Kind: query.KindTime, Op: sharedDomain.OpGte, Value: opened}},
			{{Column: "escalated", Kind: query.KindBool, Op: sharedDomain.OpEq, Value: true}},
			{{Column: "id", Kind: query.KindOther, Op: sharedDomain.OpEq, Value: "ABC", FoldCase: true}},
		},
		Sort: sharedDomain.Sort{Column: "opened_at"},
	}

	st, err := SQLite.Select("tickets", []string{"id"}, c)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id FROM tickets WHERE opened_at >= ? AND escalated = ?"+
			" AND LOWER(CAST(id AS TEXT)) = ? ORDER BY opened_at ASC",
		st.SQL)
	assert.Equal(t, []interface{}{"2024-03-01T09:00:00.000000000Z", 1, "abc"}, st.Args)
}

func TestClickHouse_ContainsOnNumbers(t *testing.T) {
	c := sharedDomain.Criteria{
		Groups: []sharedDomain.Group{{
			{Column: "title", Kind: query.KindString, Op: sharedDomain.OpContains, Value: "vpn", FoldCase: true},
			{Column: "priority", Kind: query.KindInt, Op: sharedDomain.OpContains, Value: "vpn", FoldCase: true},
		}},
		Sort: sharedDomain.Sort{Column: "event_time", Tiebreak: "id"},
		Page: sharedDomain.Page{Limit: 5},
	}

	st, err := ClickHouse.Select("tasks_log", []string{"id", "title"}, c)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, title FROM tasks_log WHERE (lowerUTF8(title) LIKE ? OR lowerUTF8(toString(priority)) LIKE ?)"+
			" ORDER BY event_time ASC NULLS FIRST, id ASC LIMIT ? OFFSET ?",
		st.SQL)
	assert.Equal(t, []interface{}{"%vpn%", "%vpn%", 5, 0}, st.Args)
}

func TestWhere_EmptyGroupNeverMatches(t *testing.T) {
	where, args, err := Postgres.Where(sharedDomain.Criteria{Groups: []sharedDomain.Group{{}}})
	require.NoError(t, err)

	assert.Equal(t, "WHERE 1 = 0", where)
	assert.Empty(t, args)
}

func TestWhere_NoCriteria(t *testing.T) {
	where, args, err := SQLite.Where(sharedDomain.Criteria{})
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)

	st, err := SQLite.Count("users", sharedDomain.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM users", st.SQL)
}

func TestInvalidIdentifiers(t *testing.T) {
	_, err := Postgres.Count("tickets; DROP TABLE tickets", sharedDomain.Criteria{})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = Postgres.Select("tickets", []string{"id"}, sharedDomain.Criteria{
		Sort: sharedDomain.Sort{Column: "id desc"},
	})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, EscapeLike(`a\b%c_d`))
	assert.Equal(t, "plain", EscapeLike("plain"))
}
