package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventease/internal/helpers"
)

func Healthz(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	sqlDB, err := gormDB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusServiceUnavailable, "Database unavailable.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
