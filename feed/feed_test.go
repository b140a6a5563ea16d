package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rodroyale/access"
	"rodroyale/models"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func c(id, owner uint, minutes int, shared bool) models.Catch {
	return models.Catch{
		ID:                  id,
		UserID:              owner,
		Species:             "Bass",
		Weight:              1,
		SharedWithFollowers: shared,
		CreatedAt:           base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(cs []models.Catch) []uint {
	out := make([]uint, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		in, want Page
	}{
		{Page{}, Page{Limit: 20}},
		{Page{Limit: -5, Skip: -1}, Page{Limit: 1}},
		{Page{Limit: 500, Skip: 40}, Page{Limit: 100, Skip: 40}},
		{Page{Limit: 7, Skip: 3}, Page{Limit: 7, Skip: 3}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}

func TestCompose_FollowedAndStrangers(t *testing.T) {
	// A=1 follows B=2 and C=3; D=4 is not followed
	catches := []models.Catch{
		c(1, 2, 10, true),
		c(2, 4, 20, true),
		c(3, 3, 5, false),
		c(4, 1, 1, false),
	}

	got := Compose(1, access.NewSet(2, 3), catches, Page{})
	assert.Equal(t, []uint{1, 3, 4}, ids(got))
}

func TestCompose_OwnCatchesRegardlessOfFlag(t *testing.T) {
	got := Compose(1, access.NewSet(), []models.Catch{c(1, 1, 1, false), c(2, 1, 2, true)}, Page{})
	assert.Equal(t, []uint{2, 1}, ids(got))
}

func TestCompose_TieBreakByID(t *testing.T) {
	catches := []models.Catch{c(5, 1, 0, false), c(9, 1, 0, false), c(7, 2, 0, true)}
	got := Compose(1, access.NewSet(2), catches, Page{})
	assert.Equal(t, []uint{9, 7, 5}, ids(got))
}

func TestCompose_PaginatesAfterOrdering(t *testing.T) {
	var catches []models.Catch
	for i := 1; i <= 25; i++ {
		// insert oldest-last so a skip-before-sort bug would show
		catches = append(catches, c(uint(i), 1, 100-i, false))
	}

	first := Compose(1, nil, catches, Page{Limit: 10})
	second := Compose(1, nil, catches, Page{Limit: 10, Skip: 10})
	third := Compose(1, nil, catches, Page{Limit: 10, Skip: 20})

	require.Len(t, first, 10)
	require.Len(t, second, 10)
	require.Len(t, third, 5)
	assert.Equal(t, uint(1), first[0].ID)
	assert.Equal(t, uint(11), second[0].ID)
	assert.Equal(t, uint(25), third[4].ID)

	assert.Empty(t, Compose(1, nil, catches, Page{Limit: 10, Skip: 30}))
}

func TestCompose_NewCatchComesFirst(t *testing.T) {
	catches := []models.Catch{c(1, 1, 10, false), c(2, 2, 20, true)}
	catches = append(catches, c(3, 1, 30, false))

	got := Compose(1, access.NewSet(2), catches, Page{Limit: 1})
	require.Len(t, got, 1)
	assert.Equal(t, uint(3), got[0].ID)
}

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Apply(items, Page{Limit: 2, Skip: 2}))
	assert.Equal(t, []int{5}, Apply(items, Page{Limit: 2, Skip: 4}))
	assert.Empty(t, Apply(items, Page{Limit: 2, Skip: 5}))
}
