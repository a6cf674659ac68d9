package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventease/internal/helpers"
)

type ValidateTicketRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

func MyTickets(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	svc, ok := getTicketing(c)
	if !ok {
		return
	}

	tickets, err := svc.MyTickets(c.Request.Context(), p)
	if err != nil {
		respondTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// TicketQR serves the ticket's QR image as PNG.
func TicketQR(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	svc, ok := getTicketing(c)
	if !ok {
		return
	}
	ticketID, ok := parseID(c, "id", "ticket")
	if !ok {
		return
	}

	path, err := svc.TicketImage(c.Request.Context(), p, ticketID)
	if err != nil {
		respondTicketingError(c, err)
		return
	}

	c.Header("Content-Type", "image/png")
	c.File(path)
}

func DeleteTicket(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	svc, ok := getTicketing(c)
	if !ok {
		return
	}
	ticketID, ok := parseID(c, "id", "ticket")
	if !ok {
		return
	}

	if err := svc.DeleteTicket(c.Request.Context(), p, ticketID); err != nil {
		respondTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted successfully."})
}

// ValidateTicket is called at the door with the scanned code.
func ValidateTicket(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	svc, ok := getTicketing(c)
	if !ok {
		return
	}

	var req ValidateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}

	ticket, err := svc.ValidateTicket(c.Request.Context(), p, req.Code)
	if err != nil {
		respondTicketingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Ticket validated successfully.",
		"ticket_id": ticket.ID,
		"event_id":  ticket.EventID,
		"used_at":   ticket.UsedAt,
	})
}
