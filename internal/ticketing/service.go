// Package ticketing issues tickets: it charges through the payment
// simulator, records the transaction and ticket atomically and renders the
// ticket's QR image.
package ticketing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/metrics"
	"github.com/farellandr/eventease/internal/models"
	"github.com/farellandr/eventease/internal/payment"
	"github.com/farellandr/eventease/internal/qr"
)

type Quote struct {
	EventID uint            `json:"event_id"`
	Theme   string          `json:"theme"`
	Amount  decimal.Decimal `json:"amount"`
}

type Receipt struct {
	Ticket      *models.Ticket
	Transaction *models.Transaction
	QRPending   bool
}

type Service struct {
	db             *gorm.DB
	renderer       *qr.Renderer
	authorize      func(method string, card payment.CardDetails) payment.Decision
	newCode        func() string
	storageTimeout time.Duration
}

type Option func(*Service)

func WithStorageTimeout(d time.Duration) Option {
	return func(s *Service) { s.storageTimeout = d }
}

func WithAuthorizer(fn func(string, payment.CardDetails) payment.Decision) Option {
	return func(s *Service) { s.authorize = fn }
}

func WithCodeGenerator(fn func() string) Option {
	return func(s *Service) { s.newCode = fn }
}

// NewService wires the issuance service. A nil renderer leaves every new
// ticket pending for the regenerator.
func NewService(db *gorm.DB, renderer *qr.Renderer, opts ...Option) *Service {
	s := &Service{
		db:             db,
		renderer:       renderer,
		authorize:      payment.Authorize,
		newCode:        uuid.NewString,
		storageTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) dbCtx(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	return s.db.WithContext(ctx), cancel
}

// loadEvent hides unpublished events from callers who cannot manage them.
func (s *Service) loadEvent(ctx context.Context, p identity.Principal, eventID uint) (*models.Event, error) {
	db, cancel := s.dbCtx(ctx)
	defer cancel()

	var event models.Event
	if err := db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storageErr("load event", err)
	}
	if !identity.CanSeeEvent(p, &event) {
		return nil, ErrEventNotFound
	}
	return &event, nil
}

func (s *Service) ownedTicket(ctx context.Context, userID, eventID uint) (*models.Ticket, error) {
	db, cancel := s.dbCtx(ctx)
	defer cancel()

	var ticket models.Ticket
	err := db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("look up ticket", err)
	}
	return &ticket, nil
}

// Checkout quotes the current price of an event for the purchase form.
func (s *Service) Checkout(ctx context.Context, p identity.Principal, eventID uint) (*Quote, error) {
	event, err := s.loadEvent(ctx, p, eventID)
	if err != nil {
		return nil, err
	}
	return &Quote{EventID: event.ID, Theme: event.Theme, Amount: event.Price}, nil
}

// Purchase charges the caller for one ticket to req.EventID. The ticket and
// its transaction are committed together or not at all. A QR rendering
// failure does not fail the purchase; the ticket is left pending instead.
func (s *Service) Purchase(ctx context.Context, p identity.Principal, req payment.Checkout) (*Receipt, error) {
	started := time.Now()
	receipt, err := s.purchase(ctx, p, req)
	metrics.TrackPurchase(outcomeOf(err), started)
	return receipt, err
}

func (s *Service) purchase(ctx context.Context, p identity.Principal, req payment.Checkout) (*Receipt, error) {
	if !identity.CanPurchase(p) {
		return nil, ErrForbidden
	}
	if fields := payment.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	event, err := s.loadEvent(ctx, p, req.EventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.ownedTicket(ctx, p.UserID, event.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &AlreadyOwnedError{Ticket: existing}
	}

	if s.authorize(req.PaymentMethod, req.Card()) != payment.Approved {
		log.Info().Uint("user_id", p.UserID).Uint("event_id", event.ID).Msg("payment declined")
		return nil, ErrPaymentDeclined
	}

	txn := &models.Transaction{
		UserID:        p.UserID,
		EventID:       event.ID,
		Amount:        event.Price,
		PaymentMethod: req.PaymentMethod,
	}
	ticket := &models.Ticket{
		UserID:    p.UserID,
		EventID:   event.ID,
		QrCode:    s.newCode(),
		QRPending: true,
	}

	db, cancel := s.dbCtx(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		ticket.TransactionID = txn.ID
		return tx.Create(ticket).Error
	})
	cancel()
	if err != nil {
		if isUniqueViolation(err) {
			// lost a race with a concurrent purchase by the same user
			if owned, lookupErr := s.ownedTicket(ctx, p.UserID, event.ID); lookupErr == nil && owned != nil {
				return nil, &AlreadyOwnedError{Ticket: owned}
			}
		}
		log.Error().Err(err).Uint("user_id", p.UserID).Uint("event_id", event.ID).Msg("failed to issue ticket")
		return nil, storageErr("issue ticket", err)
	}

	log.Info().
		Uint("user_id", p.UserID).
		Uint("event_id", event.ID).
		Str("ticket_code", ticket.QrCode).
		Str("amount", txn.Amount.StringFixed(2)).
		Msg("ticket issued")

	ticket.QRPending = !s.renderQR(ctx, ticket)
	return &Receipt{Ticket: ticket, Transaction: txn, QRPending: ticket.QRPending}, nil
}

// renderQR renders the ticket's image and clears its pending flag,
// reporting whether the image is in place.
func (s *Service) renderQR(ctx context.Context, ticket *models.Ticket) bool {
	if s.renderer == nil {
		metrics.QRPendingTickets.Inc()
		return false
	}
	if err := s.renderer.Render(ctx, ticket.QrCode); err != nil {
		metrics.QRPendingTickets.Inc()
		log.Warn().Err(err).Str("ticket_code", ticket.QrCode).Msg("qr render failed, ticket left pending")
		return false
	}

	db, cancel := s.dbCtx(ctx)
	defer cancel()
	err := db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).Update("qr_pending", false).Error
	if err != nil {
		// the regenerator re-renders the same bytes and clears it later
		log.Error().Err(err).Str("ticket_code", ticket.QrCode).Msg("failed to clear qr pending flag")
	}
	return true
}

func (s *Service) MyTickets(ctx context.Context, p identity.Principal) ([]models.Ticket, error) {
	db, cancel := s.dbCtx(ctx)
	defer cancel()

	var tickets []models.Ticket
	err := db.Preload("Event").
		Where("user_id = ?", p.UserID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	return tickets, nil
}

func (s *Service) ownTicket(ctx context.Context, p identity.Principal, id uint) (*models.Ticket, error) {
	db, cancel := s.dbCtx(ctx)
	defer cancel()

	var ticket models.Ticket
	if err := db.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, storageErr("load ticket", err)
	}
	if ticket.UserID != p.UserID {
		return nil, ErrTicketNotFound
	}
	return &ticket, nil
}

// DeleteTicket removes one of the caller's tickets. The transaction stays as
// the record of payment.
func (s *Service) DeleteTicket(ctx context.Context, p identity.Principal, id uint) error {
	ticket, err := s.ownTicket(ctx, p, id)
	if err != nil {
		return err
	}

	db, cancel := s.dbCtx(ctx)
	err = db.Delete(&models.Ticket{}, ticket.ID).Error
	cancel()
	if err != nil {
		return storageErr("delete ticket", err)
	}

	if s.renderer != nil {
		if err := s.renderer.Store().Remove(ctx, ticket.QrCode); err != nil {
			log.Warn().Err(err).Str("ticket_code", ticket.QrCode).Msg("failed to remove qr image")
		}
	}
	return nil
}

// RemoveImages deletes the QR images of tickets that no longer exist, for
// example after their event was deleted.
func (s *Service) RemoveImages(ctx context.Context, codes []string) {
	if s.renderer == nil {
		return
	}
	for _, code := range codes {
		if err := s.renderer.Store().Remove(ctx, code); err != nil {
			log.Warn().Err(err).Str("ticket_code", code).Msg("failed to remove qr image")
		}
	}
}

// ValidateTicket marks the ticket with the scanned code as used. Only the
// event's organizer or an admin may do it, and only once.
func (s *Service) ValidateTicket(ctx context.Context, p identity.Principal, code string) (*models.Ticket, error) {
	db, cancel := s.dbCtx(ctx)
	defer cancel()

	var ticket models.Ticket
	if err := db.Preload("Event").Where("qr_code = ?", code).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, storageErr("load ticket", err)
	}
	if ticket.Event == nil || !identity.CanValidateTickets(p, ticket.Event) {
		return nil, ErrForbidden
	}
	if ticket.IsUsed {
		return nil, ErrTicketUsed
	}

	now := time.Now()
	res := db.Model(&models.Ticket{}).
		Where("id = ? AND is_used = ?", ticket.ID, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now})
	if res.Error != nil {
		return nil, storageErr("validate ticket", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTicketUsed
	}

	ticket.IsUsed = true
	ticket.UsedAt = &now
	log.Info().Str("ticket_code", code).Uint("validated_by", p.UserID).Msg("ticket validated")
	return &ticket, nil
}

// TicketImage returns the path of the ticket's QR image, rendering it first
// when it is still pending or missing on disk.
func (s *Service) TicketImage(ctx context.Context, p identity.Principal, id uint) (string, error) {
	ticket, err := s.ownTicket(ctx, p, id)
	if err != nil {
		return "", err
	}
	if s.renderer == nil {
		return "", storageErr("render qr", errors.New("qr rendering not configured"))
	}

	store := s.renderer.Store()
	present, err := store.Exists(ctx, ticket.QrCode)
	if err != nil {
		return "", storageErr("stat qr", err)
	}
	if ticket.QRPending || !present {
		if err := s.renderer.Render(ctx, ticket.QrCode); err != nil {
			return "", storageErr("render qr", err)
		}
		if ticket.QRPending {
			db, cancel := s.dbCtx(ctx)
			err := db.Model(ticket).Update("qr_pending", false).Error
			cancel()
			if err != nil {
				log.Error().Err(err).Str("ticket_code", ticket.QrCode).Msg("failed to clear qr pending flag")
			} else {
				metrics.QRPendingTickets.Dec()
			}
		}
	}
	return store.Path(ticket.QrCode)
}
