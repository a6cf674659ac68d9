package ticketing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/metrics"
	"github.com/farellandr/eventease/internal/models"
	"github.com/farellandr/eventease/internal/payment"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrAlreadyOwned    = errors.New("ticket already owned for this event")
	ErrPaymentDeclined = errors.New("payment declined")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrTicketUsed      = errors.New("ticket already used")
	ErrForbidden       = errors.New("operation not permitted")
)

// AlreadyOwnedError carries the ticket the caller already holds.
type AlreadyOwnedError struct {
	Ticket *models.Ticket
}

func (e *AlreadyOwnedError) Error() string {
	return fmt.Sprintf("%s (ticket %d)", ErrAlreadyOwned, e.Ticket.ID)
}

func (e *AlreadyOwnedError) Is(target error) bool {
	return target == ErrAlreadyOwned
}

// StorageError is a database or file failure. Nothing was committed and the
// caller may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Retryable() bool { return true }

type ValidationError struct {
	Fields payment.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "invalid checkout: " + strings.Join(keys, ", ")
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func outcomeOf(err error) string {
	var (
		storage    *StorageError
		validation *ValidationError
	)
	switch {
	case err == nil:
		return metrics.OutcomeIssued
	case errors.Is(err, ErrAlreadyOwned):
		return metrics.OutcomeAlreadyOwned
	case errors.Is(err, ErrPaymentDeclined):
		return metrics.OutcomeDeclined
	case errors.Is(err, ErrEventNotFound):
		return metrics.OutcomeEventNotFound
	case errors.As(err, &validation):
		return metrics.OutcomeInvalid
	case errors.As(err, &storage):
		return metrics.OutcomeStorageFailed
	}
	return metrics.OutcomeInvalid
}
