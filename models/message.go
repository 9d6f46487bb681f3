package models

import "time"

// Trigger conditions for message release.
const (
	TriggerDate       = "date"
	TriggerInactivity = "inactivity"
)

// Message types.
const (
	MessageTypeLetter      = "letter"
	MessageTypeInstruction = "instruction"
	MessageTypeFarewell    = "farewell"
)

// Message is a legacy message held until its trigger condition is met, then
// mailed to the recipient by the delivery worker.
type Message struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"index;not null" json:"user_id"`
	RecipientName  string `gorm:"size:128" json:"recipient_name"`
	RecipientEmail string `gorm:"size:255;not null" json:"recipient_email"`
	Subject        string `gorm:"size:255;not null" json:"subject"`
	Content        string `gorm:"type:text;not null" json:"content"`
	MessageType    string `gorm:"size:32;default:'letter'" json:"message_type"`
	// TriggerCondition is "date" for scheduled release or "inactivity" for
	// release when the owner fails proof-of-life.
	TriggerCondition string     `gorm:"size:32;not null;default:'date'" json:"trigger_condition"`
	DeliveryDate     *time.Time `gorm:"index" json:"delivery_date"`
	IsDelivered      bool       `gorm:"index;default:false" json:"is_delivered"`
	DeliveredAt      *time.Time `json:"delivered_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
