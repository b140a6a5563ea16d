package leaderboard

import (
	"strings"
	"time"

	"rodroyale/models"
	"rodroyale/stats"
)

// UserCatches is the raw input for one cohort member.
type UserCatches struct {
	UserID   uint
	Username string
	Catches  []models.Catch
}

// FollowingCohort keeps every user given, active or not. Callers pass
// the viewer first, then followed users in follow order.
func FollowingCohort(users []UserCatches, now time.Time) []Member {
	out := make([]Member, 0, len(users))
	for _, u := range users {
		out = append(out, Member{UserID: u.UserID, Username: u.Username, Stats: stats.Compute(u.Catches, now)})
	}
	return out
}

// GlobalCohort drops users without a catch in the current window.
func GlobalCohort(users []UserCatches, now time.Time) []Member {
	out := make([]Member, 0, len(users))
	for _, u := range users {
		s := stats.Compute(u.Catches, now)
		if s.CatchesThisMonth == 0 {
			continue
		}
		out = append(out, Member{UserID: u.UserID, Username: u.Username, Stats: s})
	}
	return out
}

// SpeciesCohort recomputes stats over catches whose species contains
// query, ignoring case, and drops users with no such catch this month.
func SpeciesCohort(users []UserCatches, query string, now time.Time) []Member {
	out := make([]Member, 0, len(users))
	for _, u := range users {
		matching := make([]models.Catch, 0, len(u.Catches))
		for _, c := range u.Catches {
			if SpeciesMatch(c.Species, query) {
				matching = append(matching, c)
			}
		}
		s := stats.Compute(matching, now)
		if s.CatchesThisMonth == 0 {
			continue
		}
		out = append(out, Member{UserID: u.UserID, Username: u.Username, Stats: s})
	}
	return out
}

func SpeciesMatch(species, query string) bool {
	return strings.Contains(strings.ToLower(species), strings.ToLower(strings.TrimSpace(query)))
}
