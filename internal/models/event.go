package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrganizerID     uint            `gorm:"not null;index" json:"organizer_id"`
	Organizer       *User           `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	Theme           string          `gorm:"size:255" json:"theme"`
	Description     string          `gorm:"size:500" json:"description"`
	LongDescription string          `gorm:"type:text" json:"long_description"`
	Category        string          `gorm:"size:100;index" json:"category"`
	Location        string          `gorm:"size:255" json:"location"`
	ThumbnailPath   string          `gorm:"size:255" json:"thumbnail_path,omitempty"`
	HeroPath        string          `gorm:"size:255" json:"hero_path,omitempty"`
	StartDate       time.Time       `gorm:"not null;index" json:"start_date"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsPublished     bool            `gorm:"not null;default:false" json:"is_published"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Guests       []Guest       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tickets      []Ticket      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// OwnedBy reports whether userID organizes the event.
func (e *Event) OwnedBy(userID uint) bool {
	return e.OrganizerID == userID
}
