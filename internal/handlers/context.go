package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/middleware"
	"github.com/farellandr/eventease/internal/ticketing"
)

func getDB(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, false
	}
	return db.WithContext(c.Request.Context()), true
}

func getPrincipal(c *gin.Context) (identity.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
	}
	return p, ok
}

func getTicketing(c *gin.Context) (*ticketing.Service, bool) {
	svc := middleware.GetTicketing(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticketing service not configured.")
		return nil, false
	}
	return svc, true
}

func parseID(c *gin.Context, param, what string) (uint, bool) {
	id, err := helpers.ParseID(c, param)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID.")
		return 0, false
	}
	return id, true
}
