package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/middleware"
	"github.com/farellandr/eventease/internal/models"
)

func GetProfile(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var tickets, unread, events int64
	err := gormDB.Model(&models.Ticket{}).Where("user_id = ?", user.ID).Count(&tickets).Error
	if err == nil {
		err = gormDB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", user.ID, false).Count(&unread).Error
	}
	if err == nil {
		err = gormDB.Model(&models.Event{}).Where("organizer_id = ?", user.ID).Count(&events).Error
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving user.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":                 user,
		"tickets":              tickets,
		"unread_notifications": unread,
		"organized_events":     events,
	})
}
