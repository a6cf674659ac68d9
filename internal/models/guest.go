package models

import "time"

type Guest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_guest_event_user,priority:2" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_guest_event_user,priority:1" json:"event_id"`
	Event     *Event    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
