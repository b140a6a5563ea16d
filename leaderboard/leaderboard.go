package leaderboard

import (
	"errors"
	"fmt"
	"sort"

	"rodroyale/stats"
)

var ErrInvalidMetric = errors.New("invalid metric")

type Metric string

const (
	BiggestCatchMonth Metric = "biggest_catch_month"
	CatchesThisMonth  Metric = "catches_this_month"
	BestAverageMonth  Metric = "best_average_month"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case BiggestCatchMonth, CatchesThisMonth, BestAverageMonth:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
}

func (m Metric) value(s stats.UserStats) float64 {
	switch m {
	case CatchesThisMonth:
		return float64(s.CatchesThisMonth)
	case BestAverageMonth:
		return s.BestAverageMonth
	default:
		return s.BiggestCatchMonth
	}
}

// Member is one user in a cohort, in the order the caller built it.
type Member struct {
	UserID   uint
	Username string
	Stats    stats.UserStats
}

type Entry struct {
	UserID              uint    `json:"user_id"`
	Username            string  `json:"username"`
	Rank                int     `json:"rank"`
	IsCurrentUser       bool    `json:"is_current_user"`
	TotalCatches        int     `json:"total_catches"`
	BiggestCatchMonth   float64 `json:"biggest_catch_month"`
	BiggestCatchSpecies string  `json:"biggest_catch_species"`
	CatchesThisMonth    int     `json:"catches_this_month"`
	BestAverageMonth    float64 `json:"best_average_month"`
}

type Response struct {
	Metric           Metric  `json:"metric"`
	Species          string  `json:"species,omitempty"`
	CurrentUserRank  *int    `json:"current_user_rank"`
	CurrentUserStats *Entry  `json:"current_user_stats"`
	TotalUsers       int     `json:"total_users"`
	Leaderboard      []Entry `json:"leaderboard"`
}

// Rank orders the cohort by metric, highest first. Ties keep cohort
// order and still get distinct sequential ranks.
func Rank(cohort []Member, metric Metric, viewer uint) Response {
	sorted := make([]Member, len(cohort))
	copy(sorted, cohort)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric.value(sorted[i].Stats) > metric.value(sorted[j].Stats)
	})

	resp := Response{
		Metric:      metric,
		TotalUsers:  len(sorted),
		Leaderboard: make([]Entry, 0, len(sorted)),
	}
	for i, m := range sorted {
		e := Entry{
			UserID:              m.UserID,
			Username:            m.Username,
			Rank:                i + 1,
			TotalCatches:        m.Stats.TotalCatches,
			BiggestCatchMonth:   m.Stats.BiggestCatchMonth,
			BiggestCatchSpecies: m.Stats.BiggestCatchSpecies,
			CatchesThisMonth:    m.Stats.CatchesThisMonth,
			BestAverageMonth:    m.Stats.BestAverageMonth,
		}
		if resp.CurrentUserRank == nil && m.UserID == viewer {
			e.IsCurrentUser = true
			rank := e.Rank
			resp.CurrentUserRank = &rank
			current := e
			resp.CurrentUserStats = &current
		}
		resp.Leaderboard = append(resp.Leaderboard, e)
	}
	return resp
}

// Top returns a copy holding only the first n entries. Ranks and the
// viewer's position still reflect the whole cohort.
func (r Response) Top(n int) Response {
	if n >= 0 && n < len(r.Leaderboard) {
		r.Leaderboard = r.Leaderboard[:n:n]
	}
	return r
}
