package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records what was charged for a ticket. Amount is frozen at
// purchase time and never follows later price edits on the event.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `json:"-"`
	EventID       uint            `gorm:"not null;index" json:"event_id"`
	Event         *Event          `json:"-"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:50;not null" json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
