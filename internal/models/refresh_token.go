package models

import (
	"time"
)

// RefreshToken represents a JWT refresh token in the database
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	// Define the relationship to User
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Revoke marks the token unusable and forces expiry.
func (rt *RefreshToken) Revoke() {
	rt.IsRevoked = true
	rt.ExpiresAt = time.Now()
}

// Usable reports whether the token may still mint new access tokens.
func (rt *RefreshToken) Usable(now time.Time) bool {
	return !rt.IsRevoked && rt.ExpiresAt.After(now)
}
