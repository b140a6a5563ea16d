package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rodroyale/models"
)

type CatchUpdate struct {
	Species             *string
	Weight              *float64
	PhotoURL            *string
	Location            *models.Location
	SharedWithFollowers *bool
}

func (u CatchUpdate) Empty() bool {
	return u.Species == nil && u.Weight == nil && u.PhotoURL == nil && u.Location == nil && u.SharedWithFollowers == nil
}

// CreateCatch stores c. With addToMap a public pin at the catch location
// is created in the same transaction.
func (s *Store) CreateCatch(ctx context.Context, c *models.Catch, addToMap bool) (*models.Pin, error) {
	var pin *models.Pin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if !addToMap {
			return nil
		}
		pin = &models.Pin{
			UserID:     c.UserID,
			CatchID:    c.ID,
			Location:   c.Location,
			Visibility: models.VisibilityPublic,
		}
		return tx.Create(pin).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catch: %w", err)
	}
	return pin, nil
}

func (s *Store) GetCatch(ctx context.Context, id uint) (*models.Catch, error) {
	var c models.Catch
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "catch")
	}
	return &c, nil
}

func (s *Store) UpdateCatch(ctx context.Context, id uint, upd CatchUpdate) (*models.Catch, error) {
	fields := map[string]interface{}{}
	if upd.Species != nil {
		fields["species"] = *upd.Species
	}
	if upd.Weight != nil {
		fields["weight"] = *upd.Weight
	}
	if upd.PhotoURL != nil {
		fields["photo_url"] = *upd.PhotoURL
	}
	if upd.Location != nil {
		fields["location_lat"] = upd.Location.Lat
		fields["location_lng"] = upd.Location.Lng
		fields["location_place"] = upd.Location.Place
	}
	if upd.SharedWithFollowers != nil {
		fields["shared_with_followers"] = *upd.SharedWithFollowers
	}

	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Catch{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("failed to update catch: %w", err)
		}
	}
	return s.GetCatch(ctx, id)
}

// DeleteCatch removes the catch and any pin referencing it.
func (s *Store) DeleteCatch(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Catch{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("catch: %w", ErrNotFound)
		}
		return tx.Where("catch_id = ?", id).Delete(&models.Pin{}).Error
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete catch: %w", err)
	}
	return err
}

// CatchesByUsers returns every catch owned by ids, newest first.
func (s *Store) CatchesByUsers(ctx context.Context, ids []uint) ([]models.Catch, error) {
	var catches []models.Catch
	if len(ids) == 0 {
		return catches, nil
	}
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&catches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load catches: %w", err)
	}
	return catches, nil
}

func (s *Store) CatchesByIDs(ctx context.Context, ids []uint) (map[uint]models.Catch, error) {
	out := make(map[uint]models.Catch, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var catches []models.Catch
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&catches).Error; err != nil {
		return nil, fmt.Errorf("failed to load catches: %w", err)
	}
	for _, c := range catches {
		out[c.ID] = c
	}
	return out, nil
}

// ActiveUserIDs lists users with a catch created at or after since,
// ordered by id.
func (s *Store) ActiveUserIDs(ctx context.Context, since time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Catch{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active users: %w", err)
	}
	return ids, nil
}
