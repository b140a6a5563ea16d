package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rodroyale/models"
	"rodroyale/stats"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func member(id uint, biggest float64, count int, avg float64) Member {
	return Member{
		UserID:   id,
		Username: "user",
		Stats:    stats.UserStats{BiggestCatchMonth: biggest, CatchesThisMonth: count, BestAverageMonth: avg},
	}
}

// =============================================================================
// ParseMetric
// =============================================================================

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"biggest_catch_month", "catches_this_month", "best_average_month"} {
		m, err := ParseMetric(s)
		require.NoError(t, err)
		assert.Equal(t, Metric(s), m)
	}

	_, err := ParseMetric("heaviest_ever")
	assert.ErrorIs(t, err, ErrInvalidMetric)
	_, err = ParseMetric("")
	assert.ErrorIs(t, err, ErrInvalidMetric)
}

// =============================================================================
// Rank
// =============================================================================

func TestRank_SortsDescending(t *testing.T) {
	cohort := []Member{member(1, 2, 5, 1), member(2, 8, 1, 8), member(3, 5, 3, 2)}

	resp := Rank(cohort, BiggestCatchMonth, 1)
	ids := []uint{}
	for _, e := range resp.Leaderboard {
		ids = append(ids, e.UserID)
	}
	assert.Equal(t, []uint{2, 3, 1}, ids)

	resp = Rank(cohort, CatchesThisMonth, 1)
	assert.Equal(t, uint(1), resp.Leaderboard[0].UserID)

	resp = Rank(cohort, BestAverageMonth, 1)
	assert.Equal(t, uint(2), resp.Leaderboard[0].UserID)
}

func TestRank_ContiguousRanks(t *testing.T) {
	cohort := []Member{member(1, 3, 1, 3), member(2, 3, 1, 3), member(3, 1, 1, 1), member(4, 3, 1, 3)}

	resp := Rank(cohort, BiggestCatchMonth, 9)
	require.Len(t, resp.Leaderboard, resp.TotalUsers)
	for i, e := range resp.Leaderboard {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	// two anglers with one 5.0 lb fish each rank 1 and 2, not tied
	cohort := []Member{member(10, 5.0, 1, 5.0), member(20, 5.0, 1, 5.0)}

	resp := Rank(cohort, BiggestCatchMonth, 20)
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, uint(10), resp.Leaderboard[0].UserID)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
	assert.Equal(t, uint(20), resp.Leaderboard[1].UserID)
	assert.Equal(t, 2, resp.Leaderboard[1].Rank)
}

func TestRank_CurrentUser(t *testing.T) {
	cohort := []Member{member(1, 1, 1, 1), member(2, 4, 1, 4), member(3, 2, 1, 2)}

	resp := Rank(cohort, BiggestCatchMonth, 3)
	require.NotNil(t, resp.CurrentUserRank)
	assert.Equal(t, 2, *resp.CurrentUserRank)
	require.NotNil(t, resp.CurrentUserStats)
	assert.Equal(t, uint(3), resp.CurrentUserStats.UserID)

	flagged := 0
	for _, e := range resp.Leaderboard {
		if e.IsCurrentUser {
			flagged++
			assert.Equal(t, uint(3), e.UserID)
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestRank_ViewerAbsent(t *testing.T) {
	resp := Rank([]Member{member(1, 1, 1, 1)}, BiggestCatchMonth, 42)
	assert.Nil(t, resp.CurrentUserRank)
	assert.Nil(t, resp.CurrentUserStats)
	assert.False(t, resp.Leaderboard[0].IsCurrentUser)
}

func TestRank_EmptyCohort(t *testing.T) {
	resp := Rank(nil, CatchesThisMonth, 1)
	assert.Equal(t, 0, resp.TotalUsers)
	assert.NotNil(t, resp.Leaderboard)
	assert.Empty(t, resp.Leaderboard)
	assert.Nil(t, resp.CurrentUserRank)
}

func TestRank_DoesNotReorderInput(t *testing.T) {
	cohort := []Member{member(1, 1, 1, 1), member(2, 9, 1, 9)}
	Rank(cohort, BiggestCatchMonth, 1)
	assert.Equal(t, uint(1), cohort[0].UserID)
}

func TestResponse_Top(t *testing.T) {
	cohort := []Member{member(1, 1, 1, 1), member(2, 4, 1, 4), member(3, 2, 1, 2)}

	resp := Rank(cohort, BiggestCatchMonth, 1).Top(2)
	assert.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, 3, resp.TotalUsers)
	require.NotNil(t, resp.CurrentUserRank)
	assert.Equal(t, 3, *resp.CurrentUserRank)

	assert.Len(t, Rank(cohort, BiggestCatchMonth, 1).Top(10).Leaderboard, 3)
}

// =============================================================================
// Cohorts
// =============================================================================

func fish(species string, weight float64, age time.Duration) models.Catch {
	return models.Catch{Species: species, Weight: weight, CreatedAt: now.Add(-age)}
}

func TestFollowingCohort_KeepsInactive(t *testing.T) {
	users := []UserCatches{
		{UserID: 1, Username: "me"},
		{UserID: 2, Username: "pal", Catches: []models.Catch{fish("Bass", 2, time.Hour)}},
	}
	cohort := FollowingCohort(users, now)
	require.Len(t, cohort, 2)
	assert.Equal(t, uint(1), cohort[0].UserID)
	assert.Equal(t, 0, cohort[0].Stats.CatchesThisMonth)
}

func TestGlobalCohort_DropsInactive(t *testing.T) {
	users := []UserCatches{
		{UserID: 1, Catches: []models.Catch{fish("Bass", 2, 60*24*time.Hour)}},
		{UserID: 2, Catches: []models.Catch{fish("Bass", 2, time.Hour)}},
		{UserID: 3},
	}
	cohort := GlobalCohort(users, now)
	require.Len(t, cohort, 1)
	assert.Equal(t, uint(2), cohort[0].UserID)
}

func TestSpeciesCohort(t *testing.T) {
	users := []UserCatches{
		{UserID: 1, Catches: []models.Catch{fish("Trout", 9, time.Hour)}},
		{UserID: 2, Catches: []models.Catch{fish("Largemouth Bass", 3, time.Hour), fish("Pike", 12, time.Hour)}},
		{UserID: 3, Catches: []models.Catch{fish("BASS", 4, time.Hour), fish("bass", 2, 45*24*time.Hour)}},
	}

	cohort := SpeciesCohort(users, "bass", now)
	require.Len(t, cohort, 2)
	assert.Equal(t, uint(2), cohort[0].UserID)
	assert.Equal(t, 3.0, cohort[0].Stats.BiggestCatchMonth)
	assert.Equal(t, 1, cohort[0].Stats.CatchesThisMonth)
	assert.Equal(t, uint(3), cohort[1].UserID)
	assert.Equal(t, 2, cohort[1].Stats.TotalCatches)

	resp := Rank(cohort, BiggestCatchMonth, 1)
	for _, e := range resp.Leaderboard {
		assert.NotEqual(t, uint(1), e.UserID)
	}
}

func TestSpeciesCohort_OnlyOldMatches(t *testing.T) {
	users := []UserCatches{{UserID: 1, Catches: []models.Catch{fish("Bass", 9, 40*24*time.Hour)}}}
	assert.Empty(t, SpeciesCohort(users, "bass", now))
}

func TestSpeciesMatch(t *testing.T) {
	assert.True(t, SpeciesMatch("Smallmouth Bass", "bass"))
	assert.True(t, SpeciesMatch("bass", " BASS "))
	assert.False(t, SpeciesMatch("Trout", "bass"))
}
