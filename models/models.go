package models

import (
	"time"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityMutuals Visibility = "mutuals"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityMutuals, VisibilityPublic:
		return true
	}
	return false
}

type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Place string  `json:"place,omitempty"`
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Bio          string    `gorm:"type:varchar(500)" json:"bio"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`

	// filled from the follows table, not columns
	Followers []uint `gorm:"-" json:"followers"`
	Following []uint `gorm:"-" json:"following"`
}

type Catch struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"index;not null" json:"user_id"`
	Species             string    `gorm:"type:varchar(100);not null" json:"species"`
	Weight              float64   `gorm:"not null" json:"weight"`
	PhotoURL            string    `gorm:"type:varchar(1024)" json:"photo_url"`
	PhotoObject         string    `gorm:"type:varchar(255)" json:"photo_object,omitempty"`
	Location            Location  `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	SharedWithFollowers bool      `gorm:"not null;default:false" json:"shared_with_followers"`
	CreatedAt           time.Time `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time `json:"-"`
}

type Pin struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	CatchID    uint       `gorm:"uniqueIndex;not null" json:"catch_id"`
	Location   Location   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Visibility Visibility `gorm:"type:varchar(16);not null" json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"-"`
}

type Follow struct {
	ID         uint      `gorm:"primaryKey"`
	FollowerID uint      `gorm:"index;uniqueIndex:idx_follower_followed;not null"`
	FollowedID uint      `gorm:"index;uniqueIndex:idx_follower_followed;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
