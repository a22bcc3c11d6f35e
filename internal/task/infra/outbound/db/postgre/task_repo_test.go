package postgres

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	"github.com/davicafu/hexaquery/internal/shared/infra/platform/sqlbuilder"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/query"
)

// scanTask lee las columnas en el orden del índice de Task.
func TestTaskColumnsMatchIndex(t *testing.T) {
	ix, err := query.IndexOf[taskDomain.Task]()
	require.NoError(t, err)

	var cols []string
	for _, f := range ix.Fields() {
		cols = append(cols, f.Column)
	}
	assert.Equal(t, taskColumns, cols)
}

func TestPendingTasksForUserQuery(t *testing.T) {
	assignee := uuid.MustParse("6F9619FF-8B86-D011-B42D-00C04FC964FF")
	raw := taskDomain.WithFilters("sortBy=title&sortDirection=desc",
		taskDomain.AssigneeFilter(assignee),
		taskDomain.StatusFilter(taskDomain.TaskPending),
	)

	spec, err := query.ParseFor[taskDomain.Task](raw, "createdAt")
	require.NoError(t, err)
	c, err := sharedDomain.FromSpecification(spec)
	require.NoError(t, err)

	st, err := sqlbuilder.Postgres.Select(taskTable, taskColumns, c)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+strings.Join(taskColumns, ", ")+" FROM tasks"+
			" WHERE LOWER(CAST(assignee_id AS TEXT)) = $1 AND LOWER(status) = $2"+
			" ORDER BY title DESC NULLS LAST, id ASC LIMIT $3 OFFSET $4",
		st.SQL)
	assert.Equal(t, []interface{}{"6f9619ff-8b86-d011-b42d-00c04fc964ff", "pending", query.DefaultPageSize, 0}, st.Args)
}
