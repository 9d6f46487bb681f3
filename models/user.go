package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account owner. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;not null" json:"username"`
	Email        string `gorm:"size:255" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Provider     string `gorm:"size:32" json:"provider"`
	ProviderID   string `gorm:"size:255" json:"provider_id"`
	RegisterIP   string `gorm:"size:45" json:"register_ip"`
	AvatarURL    string `gorm:"size:512" json:"avatar_url"`
	// PlanLimitMB overrides the configured default storage quota when > 0.
	PlanLimitMB int `gorm:"default:0" json:"plan_limit_mb"`
	// LastSeenAt is the proof-of-life signal; any authenticated request refreshes it.
	LastSeenAt      *time.Time `gorm:"index" json:"last_seen_at"`
	LastCheckInAt   *time.Time `json:"last_check_in_at"`
	ConsecutiveDays int        `gorm:"default:0" json:"consecutive_days"`
	// InactivityNotifiedAt records when the trusted-contact cascade last fired,
	// so repeated worker passes do not re-notify.
	InactivityNotifiedAt *time.Time     `json:"-"`
	ReminderSentAt       *time.Time     `json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
	Messages             []Message      `json:"-"`
	TimeCapsules         []TimeCapsule  `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
