package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/models"
)

type AddGuestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func ListGuests(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	event, ok := loadManagedEvent(c, gormDB, p)
	if !ok {
		return
	}

	var guests []models.Guest
	if err := gormDB.Preload("User").Where("event_id = ?", event.ID).Order("created_at ASC").Find(&guests).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving guests.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_id": event.ID, "guests": guests})
}

// AddGuest puts a registered user on the event's guest list.
func AddGuest(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	var req AddGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	event, ok := loadManagedEvent(c, gormDB, p)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	guest := models.Guest{UserID: user.ID, EventID: event.ID}
	if err := gormDB.Create(&guest).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "User is already on the guest list.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to add guest.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Guest added successfully.", "guest_id": guest.ID})
}

func RemoveGuest(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	event, ok := loadManagedEvent(c, gormDB, p)
	if !ok {
		return
	}
	guestID, ok := parseID(c, "guestId", "guest")
	if !ok {
		return
	}

	result := gormDB.Where("id = ? AND event_id = ?", guestID, event.ID).Delete(&models.Guest{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to remove guest.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Guest not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Guest removed successfully."})
}
