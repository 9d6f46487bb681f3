package models

import "time"

// CheckIn stores explicit proof-of-life check-ins.
type CheckIn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	CheckInDate    time.Time `gorm:"index;not null" json:"check_in_date"`
	StreakAchieved int       `json:"streak_achieved"`
	CreatedAt      time.Time `json:"created_at"`
}
