package feed

import (
	"sort"

	"rodroyale/access"
	"rodroyale/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Page struct {
	Limit int
	Skip  int
}

// Normalize clamps limit into [1, MaxLimit] and skip to >= 0. A zero
// limit means "not given" and becomes DefaultLimit.
func (p Page) Normalize() Page {
	switch {
	case p.Limit == 0:
		p.Limit = DefaultLimit
	case p.Limit < 1:
		p.Limit = 1
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

// Apply cuts the page out of an already ordered slice.
func Apply[T any](items []T, p Page) []T {
	p = p.Normalize()
	if p.Skip >= len(items) {
		return []T{}
	}
	end := p.Skip + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Skip:end]
}

// SortNewestFirst orders by created_at desc, then id desc so equal
// timestamps paginate deterministically.
func SortNewestFirst(catches []models.Catch) {
	sort.SliceStable(catches, func(i, j int) bool {
		a, b := catches[i], catches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Compose builds the viewer's feed: their own catches plus everything
// owned by users they follow, newest first. Following grants feed
// visibility whatever the sharing flag says. Paging happens after the
// full ordering.
func Compose(viewer uint, following access.Set, catches []models.Catch, p Page) []models.Catch {
	out := make([]models.Catch, 0, len(catches))
	for _, c := range catches {
		if c.UserID == viewer || following.Has(c.UserID) {
			out = append(out, c)
		}
	}
	SortNewestFirst(out)
	return Apply(out, p)
}
