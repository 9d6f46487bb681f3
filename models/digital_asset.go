package models

import "time"

// Asset visibility levels.
const (
	VisibilityPrivate  = "private"
	VisibilityContacts = "contacts"
)

// DigitalAsset is a user-owned file stored in the blob store. Size and
// StoragePath are immutable after creation.
type DigitalAsset struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Name   string `gorm:"size:255;not null" json:"name"`
	Type   string `gorm:"size:64" json:"type"`
	// Size is the byte count as decimal text (legacy schema shape); the
	// storage aggregator parses it base-10 and skips malformed values.
	Size                 string     `gorm:"size:32;not null" json:"size"`
	StoragePath          string     `gorm:"size:1024;not null" json:"storage_path"`
	Visibility           string     `gorm:"size:16;default:'private'" json:"visibility"`
	Tags                 string     `gorm:"size:512" json:"tags"` // comma separated
	Folder               string     `gorm:"size:255" json:"folder"`
	ScheduledReleaseDate *time.Time `json:"scheduled_release_date"`
	Watermark            bool       `gorm:"default:false" json:"watermark"`
	RestrictDownload     bool       `gorm:"default:false" json:"restrict_download"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	LastAccessed         *time.Time `json:"last_accessed"`
}
