// Package access decides who may see or change catches and pins.
//
// Every function here is a pure predicate over the follow graph as the
// caller loaded it. Viewer id 0 is the anonymous viewer.
package access

import "rodroyale/models"

const Anonymous uint = 0

type Set map[uint]struct{}

func NewSet(ids ...uint) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// Relation is the follow graph between one viewer and one owner.
type Relation struct {
	ViewerFollowsOwner bool
	OwnerFollowsViewer bool
}

func (r Relation) Mutual() bool {
	return r.ViewerFollowsOwner && r.OwnerFollowsViewer
}

// RelationOf builds the relation from the viewer's following and
// follower sets.
func RelationOf(viewer, owner uint, following, followers Set) Relation {
	if viewer == Anonymous {
		return Relation{}
	}
	return Relation{
		ViewerFollowsOwner: following.Has(owner),
		OwnerFollowsViewer: followers.Has(owner),
	}
}

// CanViewCatch reports whether viewer may read c directly.
// Anonymous viewers never can.
func CanViewCatch(viewer uint, c models.Catch, rel Relation) bool {
	if viewer == Anonymous {
		return false
	}
	if viewer == c.UserID {
		return true
	}
	return c.SharedWithFollowers && rel.ViewerFollowsOwner
}

// CanViewPin reports whether viewer may see p on the map. The catch the
// pin points at is not consulted, so a dangling pin evaluates normally.
func CanViewPin(viewer uint, p models.Pin, rel Relation) bool {
	if viewer != Anonymous && viewer == p.UserID {
		return true
	}
	switch p.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityMutuals:
		return viewer != Anonymous && rel.Mutual()
	default:
		return false
	}
}

// CanModify guards every update and delete: only the owner may mutate.
func CanModify(viewer, owner uint) bool {
	return viewer != Anonymous && viewer == owner
}
