package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"rodroyale/access"
	"rodroyale/models"
)

// Follow adds the edge follower -> followed. Repeating it is a no-op.
func (s *Store) Follow(ctx context.Context, follower, followed uint) error {
	if follower == followed {
		return ErrSelfFollow
	}
	for _, id := range []uint{follower, followed} {
		ok, err := s.UserExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user: %w", ErrNotFound)
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: follower, FollowedID: followed}).Error
	if err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (s *Store) Unfollow(ctx context.Context, follower, followed uint) error {
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", follower, followed).
		Delete(&models.Follow{}).Error
	if err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

// FollowingIDs lists who id follows, oldest edge first.
func (s *Store) FollowingIDs(ctx context.Context, id uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", id).Order("id").Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load following: %w", err)
	}
	return ids, nil
}

// FollowerIDs lists who follows id, oldest edge first.
func (s *Store) FollowerIDs(ctx context.Context, id uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ?", id).Order("id").Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load followers: %w", err)
	}
	return ids, nil
}

// Relation loads both directions between viewer and owner.
func (s *Store) Relation(ctx context.Context, viewer, owner uint) (access.Relation, error) {
	if viewer == access.Anonymous || viewer == owner {
		return access.Relation{}, nil
	}
	var edges []models.Follow
	err := s.db.WithContext(ctx).
		Where("(follower_id = ? AND followed_id = ?) OR (follower_id = ? AND followed_id = ?)", viewer, owner, owner, viewer).
		Find(&edges).Error
	if err != nil {
		return access.Relation{}, fmt.Errorf("failed to load relation: %w", err)
	}

	var rel access.Relation
	for _, e := range edges {
		if e.FollowerID == viewer {
			rel.ViewerFollowsOwner = true
		} else {
			rel.OwnerFollowsViewer = true
		}
	}
	return rel, nil
}

func (s *Store) ListFollowers(ctx context.Context, id uint, skip, limit int) ([]models.User, error) {
	return s.listEdgeUsers(ctx, "followed_id", "follower_id", id, skip, limit)
}

func (s *Store) ListFollowing(ctx context.Context, id uint, skip, limit int) ([]models.User, error) {
	return s.listEdgeUsers(ctx, "follower_id", "followed_id", id, skip, limit)
}

func (s *Store) listEdgeUsers(ctx context.Context, match, other string, id uint, skip, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows."+other+" = users.id").
		Where("follows."+match+" = ?", id).
		Order("follows.id").
		Offset(skip).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list follow edges: %w", err)
	}
	return users, nil
}

func (s *Store) loadGraph(ctx context.Context, u *models.User) error {
	var err error
	if u.Followers, err = s.FollowerIDs(ctx, u.ID); err != nil {
		return err
	}
	if u.Following, err = s.FollowingIDs(ctx, u.ID); err != nil {
		return err
	}
	if u.Followers == nil {
		u.Followers = []uint{}
	}
	if u.Following == nil {
		u.Following = []uint{}
	}
	return nil
}
