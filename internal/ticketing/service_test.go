package ticketing

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/dbtest"
	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/models"
	"github.com/farellandr/eventease/internal/payment"
	"github.com/farellandr/eventease/internal/qr"
)

type fixture struct {
	db        *gorm.DB
	store     *qr.FileStore
	root      string
	svc       *Service
	buyer     identity.Principal
	organizer identity.Principal
	event     *models.Event
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := dbtest.Open(t)

	organizer := &models.User{ID: 3, Email: "org@example.com", PasswordHash: "x", Role: models.RoleOrganizer, Approved: true}
	buyer := &models.User{ID: 7, Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleUser, Approved: true}
	require.NoError(t, db.Create(organizer).Error)
	require.NoError(t, db.Create(buyer).Error)

	event := &models.Event{
		ID:          42,
		OrganizerID: organizer.ID,
		Theme:       "Jazz Night",
		StartDate:   time.Now().Add(72 * time.Hour),
		Price:       decimal.RequireFromString("123.45"),
		IsPublished: true,
	}
	require.NoError(t, db.Create(event).Error)

	root := t.TempDir()
	store, err := qr.NewFileStore(root)
	require.NoError(t, err)
	renderer := qr.NewRenderer(store, qr.WithScale(4), qr.WithRetryInterval(time.Millisecond))

	return &fixture{
		db:        db,
		store:     store,
		root:      root,
		svc:       NewService(db, renderer, opts...),
		buyer:     identity.PrincipalOf(buyer),
		organizer: identity.PrincipalOf(organizer),
		event:     event,
	}
}

func card(eventID uint) payment.Checkout {
	return payment.Checkout{
		EventID:       eventID,
		PaymentMethod: payment.MethodCreditCard,
		CardNumber:    "4111111111111111",
		Expiration:    "12/29",
		Cvv:           "123",
	}
}

func TestPurchaseIssuesTicket(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
	require.NoError(t, err)
	assert.False(t, receipt.QRPending)

	assert.Equal(t, uint(7), receipt.Transaction.UserID)
	assert.Equal(t, uint(42), receipt.Transaction.EventID)
	assert.Equal(t, "123.45", receipt.Transaction.Amount.StringFixed(2))
	assert.Equal(t, receipt.Transaction.ID, receipt.Ticket.TransactionID)

	_, err = uuid.Parse(receipt.Ticket.QrCode)
	assert.NoError(t, err, "ticket code should be a uuid")

	var stored models.Ticket
	require.NoError(t, f.db.Where("qr_code = ?", receipt.Ticket.QrCode).First(&stored).Error)
	assert.False(t, stored.QRPending)
	assert.False(t, stored.IsUsed)

	path, err := f.store.Path(receipt.Ticket.QrCode)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestPurchaseAmountIsFrozen(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(f.event).Update("price", decimal.RequireFromString("200.00")).Error)

	var txn models.Transaction
	require.NoError(t, f.db.First(&txn, receipt.Transaction.ID).Error)
	assert.Equal(t, "123.45", txn.Amount.StringFixed(2))
}

func TestPurchaseSecondTimeIsAlreadyOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Purchase(ctx, f.buyer, card(42))
	require.NoError(t, err)

	_, err = f.svc.Purchase(ctx, f.buyer, card(42))
	require.ErrorIs(t, err, ErrAlreadyOwned)

	var owned *AlreadyOwnedError
	require.True(t, errors.As(err, &owned))
	assert.Equal(t, first.Ticket.ID, owned.Ticket.ID)

	var tickets, txns int64
	f.db.Model(&models.Ticket{}).Count(&tickets)
	f.db.Model(&models.Transaction{}).Count(&txns)
	assert.Equal(t, int64(1), tickets)
	assert.Equal(t, int64(1), txns)
}

func TestPurchaseConcurrentSameUser(t *testing.T) {
	f := newFixture(t)

	const n = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  int
		owned   int
		unknown []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued++
			case errors.Is(err, ErrAlreadyOwned):
				owned++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 1, issued)
	assert.Equal(t, n-1, owned)

	var tickets int64
	f.db.Model(&models.Ticket{}).Where("user_id = ? AND event_id = ?", 7, 42).Count(&tickets)
	assert.Equal(t, int64(1), tickets)
}

func TestPurchaseMissingEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Purchase(context.Background(), f.buyer, card(999))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestPurchaseUnpublishedEventIsHidden(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.event).Update("is_published", false).Error)

	_, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
	assert.ErrorIs(t, err, ErrEventNotFound)

	quote, err := f.svc.Checkout(context.Background(), f.organizer, 42)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", quote.Theme)
}

func TestPurchaseDeclined(t *testing.T) {
	f := newFixture(t, WithAuthorizer(func(string, payment.CardDetails) payment.Decision {
		return payment.Declined
	}))

	_, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	var tickets int64
	f.db.Model(&models.Ticket{}).Count(&tickets)
	assert.Zero(t, tickets)
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture(t)

	req := card(42)
	req.Expiration = "2029-12"
	_, err := f.svc.Purchase(context.Background(), f.buyer, req)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "expiration")
}

func TestPurchaseCashNeedsNoCard(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.svc.Purchase(context.Background(), f.buyer, payment.Checkout{EventID: 42, PaymentMethod: "Cash"})
	require.NoError(t, err)
	assert.Equal(t, "Cash", receipt.Transaction.PaymentMethod)
}

func TestPurchaseQRFailureLeavesTicketPending(t *testing.T) {
	f := newFixture(t)
	// a code the store refuses as a key makes every render fail
	f.svc.newCode = func() string { return "not/a/valid/key" }

	receipt, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
	require.NoError(t, err)
	assert.True(t, receipt.QRPending)

	var stored models.Ticket
	require.NoError(t, f.db.First(&stored, receipt.Ticket.ID).Error)
	assert.True(t, stored.QRPending)
}

func TestPendingTicketsAreRegenerated(t *testing.T) {
	f := newFixture(t)
	f.svc.renderer = nil

	receipt, err := f.svc.Purchase(context.Background(), f.buyer, card(42))
	require.NoError(t, err)
	require.True(t, receipt.QRPending)

	queue := NewPendingTickets(f.db)
	renderer := qr.NewRenderer(f.store, qr.WithScale(4))
	n, err := qr.NewRegenerator(renderer, queue, 10).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := queue.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	path, err := f.store.Path(receipt.Ticket.QrCode)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestStorageFailureCommitsNothing(t *testing.T) {
	f := newFixture(t)
	err := f.db.Callback().Create().Before("gorm:create").Register("fail_tickets", func(tx *gorm.DB) {
		if tx.Statement.Table == "tickets" {
			tx.AddError(errors.New("disk I/O error"))
		}
	})
	require.NoError(t, err)

	_, err = f.svc.Purchase(context.Background(), f.buyer, card(42))
	var serr *StorageError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.True(t, serr.Retryable())

	var txns int64
	f.db.Model(&models.Transaction{}).Count(&txns)
	assert.Zero(t, txns, "transaction must roll back with the ticket")
}

func TestMyTicketsAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.Purchase(ctx, f.buyer, card(42))
	require.NoError(t, err)

	tickets, err := f.svc.MyTickets(ctx, f.buyer)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.NotNil(t, tickets[0].Event)
	assert.Equal(t, "Jazz Night", tickets[0].Event.Theme)

	other := identity.Principal{UserID: 99, Role: models.RoleUser, Approved: true}
	assert.ErrorIs(t, f.svc.DeleteTicket(ctx, other, receipt.Ticket.ID), ErrTicketNotFound)

	require.NoError(t, f.svc.DeleteTicket(ctx, f.buyer, receipt.Ticket.ID))

	path, _ := f.store.Path(receipt.Ticket.QrCode)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	var txns int64
	f.db.Model(&models.Transaction{}).Count(&txns)
	assert.Equal(t, int64(1), txns, "transaction is kept as the payment record")

	// the slot is free again
	_, err = f.svc.Purchase(ctx, f.buyer, card(42))
	assert.NoError(t, err)
}

func TestValidateTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.Purchase(ctx, f.buyer, card(42))
	require.NoError(t, err)
	code := receipt.Ticket.QrCode

	_, err = f.svc.ValidateTicket(ctx, f.buyer, code)
	assert.ErrorIs(t, err, ErrForbidden)

	ticket, err := f.svc.ValidateTicket(ctx, f.organizer, code)
	require.NoError(t, err)
	assert.True(t, ticket.IsUsed)
	assert.NotNil(t, ticket.UsedAt)

	_, err = f.svc.ValidateTicket(ctx, f.organizer, code)
	assert.ErrorIs(t, err, ErrTicketUsed)

	_, err = f.svc.ValidateTicket(ctx, f.organizer, "unknown")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketImageRendersOnDemand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.Purchase(ctx, f.buyer, card(42))
	require.NoError(t, err)
	require.NoError(t, f.store.Remove(ctx, receipt.Ticket.QrCode))

	path, err := f.svc.TicketImage(ctx, f.buyer, receipt.Ticket.ID)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = f.svc.TicketImage(ctx, f.organizer, receipt.Ticket.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
