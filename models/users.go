package models

import (
	"time"
)

// UserProfile is the engine's view of a user. The ID comes from the identity
// provider and is opaque here.
type UserProfile struct {
	UserID         string    `gorm:"primaryKey;size:64" json:"user_id"`
	Username       string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	PrivateAccount bool      `gorm:"not null;default:false" json:"private_account"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
