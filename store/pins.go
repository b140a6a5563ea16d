package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rodroyale/models"
)

type PinUpdate struct {
	Location   *models.Location
	Visibility *models.Visibility
}

func (s *Store) CreatePin(ctx context.Context, p *models.Pin) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Pin{}).Where("catch_id = ?", p.CatchID).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check pin: %w", err)
	}
	if n > 0 {
		return ErrPinExists
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPinExists
		}
		return fmt.Errorf("failed to create pin: %w", err)
	}
	return nil
}

func (s *Store) GetPin(ctx context.Context, id uint) (*models.Pin, error) {
	var p models.Pin
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "pin")
	}
	return &p, nil
}

func (s *Store) UpdatePin(ctx context.Context, id uint, upd PinUpdate) (*models.Pin, error) {
	fields := map[string]interface{}{}
	if upd.Location != nil {
		fields["location_lat"] = upd.Location.Lat
		fields["location_lng"] = upd.Location.Lng
		fields["location_place"] = upd.Location.Place
	}
	if upd.Visibility != nil {
		fields["visibility"] = string(*upd.Visibility)
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Pin{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("failed to update pin: %w", err)
		}
	}
	return s.GetPin(ctx, id)
}

func (s *Store) DeletePin(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Pin{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete pin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("pin: %w", ErrNotFound)
	}
	return nil
}

func (s *Store) ListPins(ctx context.Context) ([]models.Pin, error) {
	var pins []models.Pin
	if err := s.db.WithContext(ctx).Order("id").Find(&pins).Error; err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	return pins, nil
}
