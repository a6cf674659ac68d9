package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:20;not null;default:user" json:"role"`
	Approved     bool      `gorm:"not null;default:false" json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	OrganizedEvents []Event        `gorm:"foreignKey:OrganizerID;constraint:OnDelete:CASCADE" json:"-"`
	Tickets         []Ticket       `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Transactions    []Transaction  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Guests          []Guest        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Notifications   []Notification `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsPendingOrganizer reports whether the account is waiting on admin approval.
func (u *User) IsPendingOrganizer() bool {
	return u.Role == RoleOrganizer && !u.Approved
}
