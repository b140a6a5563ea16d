package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"rodroyale/models"
)

type UserUpdate struct {
	Username *string
	Email    *string
	Bio      *string
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.checkUnique(ctx, 0, &u.Username, &u.Email); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.Followers, u.Following = []uint{}, []uint{}
	return nil
}

// checkUnique fails with ErrDuplicate when another user holds the
// username or email.
func (s *Store) checkUnique(ctx context.Context, self uint, username, email *string) error {
	if username == nil && email == nil {
		return nil
	}
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id <> ?", self)
	switch {
	case username != nil && email != nil:
		q = q.Where("username = ? OR email = ?", *username, *email)
	case username != nil:
		q = q.Where("username = ?", *username)
	default:
		q = q.Where("email = ?", *email)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("email or username: %w", ErrDuplicate)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.loadGraph(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.loadGraph(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*models.User, error) {
	if err := s.checkUnique(ctx, id, upd.Username, upd.Email); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.Username != nil {
		fields["username"] = *upd.Username
	}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("email or username: %w", ErrDuplicate)
			}
			return nil, fmt.Errorf("failed to update user: %w", res.Error)
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}

// SearchUsers matches username or bio, ignoring case.
func (s *Store) SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(bio) LIKE ?", pattern, pattern).
		Order("id").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// Usernames maps ids to usernames; unknown ids are absent.
func (s *Store) Usernames(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load usernames: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

// DeleteUser removes the account with its catches, pins and follow
// edges. It returns the photo objects the caller should remove from
// image storage.
func (s *Store) DeleteUser(ctx context.Context, id uint) ([]string, error) {
	var objects []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user: %w", ErrNotFound)
		}

		if err := tx.Model(&models.Catch{}).
			Where("user_id = ? AND photo_object <> ''", id).
			Pluck("photo_object", &objects).Error; err != nil {
			return err
		}

		// pins of other users may point at this user's catches
		catchIDs := tx.Model(&models.Catch{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR catch_id IN (?)", id, catchIDs).Delete(&models.Pin{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Catch{}).Error; err != nil {
			return err
		}
		return tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&models.Follow{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return objects, nil
}
