package ticketing

import (
	"context"

	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/models"
)

// PendingTickets exposes tickets flagged qr_pending to the QR regenerator.
type PendingTickets struct {
	db *gorm.DB
}

func NewPendingTickets(db *gorm.DB) *PendingTickets {
	return &PendingTickets{db: db}
}

func (p *PendingTickets) Pending(ctx context.Context, limit int) ([]string, error) {
	var codes []string
	err := p.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("qr_pending = ?", true).
		Order("id").
		Limit(limit).
		Pluck("qr_code", &codes).Error
	return codes, err
}

func (p *PendingTickets) MarkRendered(ctx context.Context, code string) error {
	return p.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("qr_code = ?", code).
		Update("qr_pending", false).Error
}

func (p *PendingTickets) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("qr_pending = ?", true).
		Count(&n).Error
	return n, err
}
