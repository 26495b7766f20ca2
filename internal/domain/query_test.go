package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryKeyIsOrderIndependent(t *testing.T) {
	a := ListQuery{Page: 1, PageSize: 10, Search: "olma",
		Filters: map[string]string{"category": "3", "status": "pending"}}
	b := ListQuery{Page: 1, PageSize: 10, Search: "olma",
		Filters: map[string]string{"status": "pending", "category": "3"}}

	assert.Equal(t, a.Key(), b.Key())
}

func TestQueryKeyDistinguishesQueries(t *testing.T) {
	base := ListQuery{Page: 1, PageSize: 10, Filters: map[string]string{}}

	other := base.Clone()
	other.Page = 2
	assert.NotEqual(t, base.Key(), other.Key())

	other = base.Clone()
	other.Search = "olma"
	assert.NotEqual(t, base.Key(), other.Key())

	other = base.Clone()
	other.Filters["category"] = "3"
	assert.NotEqual(t, base.Key(), other.Key())
}

func TestCloneDoesNotAliasFilters(t *testing.T) {
	q := ListQuery{Page: 1, Filters: map[string]string{"category": "3"}}
	c := q.Clone()
	c.Filters["category"] = "9"

	require.Equal(t, "3", q.Filters["category"])
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsAuthError(ErrNoToken))
	assert.True(t, IsAuthError(NewAPIError(KindAuth, 401, "expired")))
	assert.False(t, IsAuthError(NewAPIError(KindServer, 500, "boom")))

	assert.True(t, IsNotFound(NewAPIError(KindNotFound, 404, "")))
	assert.True(t, IsValidation(NewAPIError(KindValidation, 400, "")))
	assert.False(t, IsValidation(NewAPIError(KindNetwork, 0, "down")))
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, ValidOrderStatus(s))
	}
	assert.False(t, ValidOrderStatus("teleported"))
	assert.False(t, ValidOrderStatus(""))
}
