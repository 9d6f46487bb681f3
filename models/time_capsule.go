package models

import "time"

// Capsule content kinds.
const (
	CapsuleTypeMessage = "message"
	CapsuleTypeFile    = "file"
)

// TimeCapsule holds content that must stay inaccessible until LockUntil.
// IsLocked is maintained by the delivery worker, but read paths re-check
// LockUntil against the clock so a lagging worker can never leak content.
type TimeCapsule struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"size:1024" json:"description"`
	Type        string `gorm:"size:16;not null;default:'message'" json:"type"`
	Content     string `gorm:"type:text" json:"-"`
	StoragePath string `gorm:"size:1024" json:"-"`
	// Size is the blob size in bytes as decimal text, shown to the owner.
	// Storage accounting does not read it: file capsules are charged a
	// fixed per-item estimate regardless of the recorded size.
	Size       string     `gorm:"size:32" json:"size"`
	LockUntil  time.Time  `gorm:"index;not null" json:"lock_until"`
	IsLocked   bool       `gorm:"index;default:true" json:"is_locked"`
	UnlockedAt *time.Time `json:"unlocked_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
