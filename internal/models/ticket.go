package models

import (
	"time"
)

type Ticket struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;uniqueIndex:idx_ticket_owner" json:"user_id"`
	User          *User        `json:"-"`
	EventID       uint         `gorm:"not null;uniqueIndex:idx_ticket_owner" json:"event_id"`
	Event         *Event       `json:"event,omitempty"`
	TransactionID uint         `gorm:"not null;index" json:"transaction_id"`
	Transaction   *Transaction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	QrCode        string       `gorm:"size:64;not null;uniqueIndex" json:"qr_code"`
	QRPending     bool         `gorm:"column:qr_pending;not null;default:false;index" json:"qr_pending"`
	IsUsed        bool         `gorm:"not null;default:false" json:"is_used"`
	UsedAt        *time.Time   `json:"used_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
