package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/payment"
	"github.com/farellandr/eventease/internal/ticketing"
)

const retryAfterSeconds = 5

// respondTicketingError maps service outcomes onto HTTP responses.
func respondTicketingError(c *gin.Context, err error) {
	var (
		owned      *ticketing.AlreadyOwnedError
		validation *ticketing.ValidationError
		storage    *ticketing.StorageError
	)

	switch {
	case errors.As(err, &validation):
		helpers.RespondWithValidation(c, validation.Fields)
	case errors.As(err, &owned):
		c.JSON(http.StatusOK, gin.H{
			"message":   "You already own a ticket for this event.",
			"notice":    "already_owned",
			"ticket_id": owned.Ticket.ID,
		})
	case errors.Is(err, ticketing.ErrPaymentDeclined):
		helpers.RespondWithError(c, http.StatusPaymentRequired, "Payment was declined.")
	case errors.Is(err, ticketing.ErrEventNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
	case errors.Is(err, ticketing.ErrTicketNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
	case errors.Is(err, ticketing.ErrTicketUsed):
		helpers.RespondWithError(c, http.StatusConflict, "Ticket has already been used.")
	case errors.Is(err, ticketing.ErrForbidden):
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to do this.")
	case errors.As(err, &storage):
		helpers.RespondRetryLater(c, retryAfterSeconds, "The request could not be completed. Please try again.")
	default:
		log.Error().Err(err).Msg("unexpected ticketing error")
		helpers.RespondWithError(c, http.StatusInternalServerError, "Unexpected error.")
	}
}

// GetCheckout quotes the event in ?eventId= for the purchase form.
func GetCheckout(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	svc, ok := getTicketing(c)
	if !ok {
		return
	}

	eventID, err := strconv.ParseUint(c.Query("eventId"), 10, 64)
	if err != nil || eventID == 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	quote, err := svc.Checkout(c.Request.Context(), p, uint(eventID))
	if err != nil {
		respondTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id":        quote.EventID,
		"theme":           quote.Theme,
		"amount":          quote.Amount.StringFixed(2),
		"payment_methods": payment.Methods,
	})
}

// PurchaseTicket charges the caller and issues one ticket. It accepts JSON
// or a form post.
func PurchaseTicket(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	svc, ok := getTicketing(c)
	if !ok {
		return
	}

	var req payment.Checkout
	if err := c.ShouldBind(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}

	receipt, err := svc.Purchase(c.Request.Context(), p, req)
	if err != nil {
		respondTicketingError(c, err)
		return
	}

	message := "Ticket purchased successfully."
	if receipt.QRPending {
		message = "Ticket purchased successfully. Your QR code will be available shortly."
	}

	c.Header("Location", "/tickets/mine")
	c.JSON(http.StatusCreated, gin.H{
		"message":     message,
		"ticket_id":   receipt.Ticket.ID,
		"ticket_code": receipt.Ticket.QrCode,
		"amount":      receipt.Transaction.Amount.StringFixed(2),
		"qr_pending":  receipt.QRPending,
	})
}
