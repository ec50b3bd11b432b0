package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListQueryNormalized(t *testing.T) {
	q := ListQuery{}.normalized()
	require.Equal(t, 1, q.Page)
	require.Equal(t, 10, q.Limit)
	require.Equal(t, "name", q.SortBy)
	require.Equal(t, "asc", q.SortOrder)

	q = ListQuery{Page: 3, Limit: 25, SortBy: "price", SortOrder: "desc"}.normalized()
	require.Equal(t, 3, q.Page)
	require.Equal(t, 25, q.Limit)
	require.Equal(t, "price", q.SortBy)
	require.Equal(t, "desc", q.SortOrder)

	// Unknown sort columns never reach the SQL.
	q = ListQuery{SortBy: "id; DROP TABLE items", Limit: 5000}.normalized()
	require.Equal(t, "name", q.SortBy)
	require.Equal(t, 10, q.Limit)
}

func TestDateOnly(t *testing.T) {
	d := time.Date(2026, 9, 5, 23, 45, 0, 0, time.UTC)
	require.Equal(t, "2026-09-05", DateOnly(d))
}
