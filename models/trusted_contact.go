package models

import "time"

// TrustedContact is a designated recipient/verifier for a user's legacy.
// NotifiedAt is set by the inactivity worker when the cascade fires.
type TrustedContact struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	Name         string     `gorm:"size:128;not null" json:"name"`
	Email        string     `gorm:"size:255;not null" json:"email"`
	Relationship string     `gorm:"size:64" json:"relationship"`
	IsVerifier   bool       `gorm:"default:false" json:"is_verifier"`
	NotifiedAt   *time.Time `json:"notified_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
