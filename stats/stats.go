package stats

import (
	"time"

	"rodroyale/models"
)

// Window is the rolling span counted as "this month".
const Window = 30 * 24 * time.Hour

type UserStats struct {
	TotalCatches        int     `json:"total_catches"`
	BiggestCatchMonth   float64 `json:"biggest_catch_month"`
	BiggestCatchSpecies string  `json:"biggest_catch_species"`
	CatchesThisMonth    int     `json:"catches_this_month"`
	BestAverageMonth    float64 `json:"best_average_month"`
	AllTimeWeight       float64 `json:"all_time_weight"`
}

func WindowStart(now time.Time) time.Time {
	return now.Add(-Window)
}

// InWindow reports whether t falls in [now-30d, now].
func InWindow(t, now time.Time) bool {
	return !t.Before(WindowStart(now)) && !t.After(now)
}

// Compute aggregates one user's catches. A user with no catches gets
// all-zero stats.
func Compute(catches []models.Catch, now time.Time) UserStats {
	var s UserStats
	var monthWeight float64

	s.TotalCatches = len(catches)
	for _, c := range catches {
		s.AllTimeWeight += c.Weight
		if !InWindow(c.CreatedAt, now) {
			continue
		}
		s.CatchesThisMonth++
		monthWeight += c.Weight
		// strict > keeps the first max in input order
		if c.Weight > s.BiggestCatchMonth {
			s.BiggestCatchMonth = c.Weight
			s.BiggestCatchSpecies = c.Species
		}
	}

	if s.CatchesThisMonth > 0 {
		s.BestAverageMonth = monthWeight / float64(s.CatchesThisMonth)
	}
	return s
}
