package models

import "time"

// Delivery log item types.
const (
	DeliveryItemMessage = "message"
	DeliveryItemCapsule = "capsule"
	DeliveryItemCascade = "cascade"
)

// Delivery reasons.
const (
	DeliveryReasonScheduled  = "scheduled"
	DeliveryReasonInactivity = "inactivity"
	DeliveryReasonUnlock     = "unlock"
)

// DeliveryLog is the audit trail for every release the workers perform:
// scheduled messages, capsule unlocks, and trusted-contact notifications.
type DeliveryLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	ItemType       string    `gorm:"size:16;not null" json:"item_type"`
	ItemID         uint      `gorm:"index" json:"item_id"`
	RecipientEmail string    `gorm:"size:255" json:"recipient_email"`
	Reason         string    `gorm:"size:16;not null" json:"reason"`
	DeliveredAt    time.Time `gorm:"index;not null" json:"delivered_at"`
}
