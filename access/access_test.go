package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rodroyale/models"
)

func TestCanViewCatch_OwnerAlways(t *testing.T) {
	for _, shared := range []bool{true, false} {
		c := models.Catch{ID: 1, UserID: 7, SharedWithFollowers: shared}
		assert.True(t, CanViewCatch(7, c, Relation{}), "shared=%v", shared)
	}
}

func TestCanViewCatch_Followers(t *testing.T) {
	tests := []struct {
		name   string
		shared bool
		rel    Relation
		want   bool
	}{
		{"shared and following", true, Relation{ViewerFollowsOwner: true}, true},
		{"shared not following", true, Relation{OwnerFollowsViewer: true}, false},
		{"unshared and following", false, Relation{ViewerFollowsOwner: true}, false},
		{"unshared stranger", false, Relation{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.Catch{ID: 1, UserID: 2, SharedWithFollowers: tt.shared}
			assert.Equal(t, tt.want, CanViewCatch(3, c, tt.rel))
		})
	}
}

func TestCanViewCatch_AnonymousDenied(t *testing.T) {
	c := models.Catch{ID: 1, UserID: 2, SharedWithFollowers: true}
	assert.False(t, CanViewCatch(Anonymous, c, Relation{ViewerFollowsOwner: true}))
}

func TestCanViewPin(t *testing.T) {
	mutual := Relation{ViewerFollowsOwner: true, OwnerFollowsViewer: true}
	oneWay := Relation{ViewerFollowsOwner: true}

	tests := []struct {
		name       string
		viewer     uint
		visibility models.Visibility
		rel        Relation
		want       bool
	}{
		{"public stranger", 3, models.VisibilityPublic, Relation{}, true},
		{"public anonymous", Anonymous, models.VisibilityPublic, Relation{}, true},
		{"mutuals both ways", 3, models.VisibilityMutuals, mutual, true},
		{"mutuals one way", 3, models.VisibilityMutuals, oneWay, false},
		{"mutuals anonymous", Anonymous, models.VisibilityMutuals, mutual, false},
		{"private mutual", 3, models.VisibilityPrivate, mutual, false},
		{"unknown visibility", 3, models.Visibility("friends"), mutual, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Pin{ID: 1, UserID: 2, CatchID: 9, Visibility: tt.visibility}
			assert.Equal(t, tt.want, CanViewPin(tt.viewer, p, tt.rel))
		})
	}
}

func TestCanViewPin_OwnerSeesEveryVisibility(t *testing.T) {
	for _, v := range []models.Visibility{models.VisibilityPrivate, models.VisibilityMutuals, models.VisibilityPublic} {
		p := models.Pin{ID: 1, UserID: 2, Visibility: v}
		assert.True(t, CanViewPin(2, p, Relation{}), string(v))
	}
}

func TestCanViewPin_DanglingCatch(t *testing.T) {
	// catch 404 was deleted; the pin still evaluates on its own visibility
	p := models.Pin{ID: 1, UserID: 2, CatchID: 404, Visibility: models.VisibilityPublic}
	assert.NotPanics(t, func() { CanViewPin(3, p, Relation{}) })
	assert.True(t, CanViewPin(3, p, Relation{}))
}

func TestRelationOf(t *testing.T) {
	rel := RelationOf(1, 2, NewSet(2, 5), NewSet(2))
	assert.True(t, rel.ViewerFollowsOwner)
	assert.True(t, rel.OwnerFollowsViewer)
	assert.True(t, rel.Mutual())

	rel = RelationOf(1, 2, NewSet(5), NewSet(2))
	assert.False(t, rel.ViewerFollowsOwner)
	assert.True(t, rel.OwnerFollowsViewer)
	assert.False(t, rel.Mutual())

	assert.Equal(t, Relation{}, RelationOf(Anonymous, 2, NewSet(2), NewSet(2)))
}

func TestCanModify(t *testing.T) {
	assert.True(t, CanModify(4, 4))
	assert.False(t, CanModify(4, 5))
	assert.False(t, CanModify(Anonymous, Anonymous))
}
