package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/session"
	"github.com/farellandr/eventease/internal/ticketing"
)

const (
	dbKey       = "db"
	servicesKey = "services"
)

// Services are the long-lived dependencies handlers reach through the
// request context.
type Services struct {
	Ticketing   *ticketing.Service
	Tokens      *identity.TokenIssuer
	Denylist    *session.Denylist
	StorageRoot string
}

func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbKey, db)
		c.Next()
	}
}

func ServicesMiddleware(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, s)
		c.Next()
	}
}

func GetDB(c *gin.Context) *gorm.DB {
	db, exists := c.Get(dbKey)
	if !exists {
		return nil
	}
	return db.(*gorm.DB)
}

func GetServices(c *gin.Context) *Services {
	s, exists := c.Get(servicesKey)
	if !exists {
		return nil
	}
	return s.(*Services)
}

func GetTicketing(c *gin.Context) *ticketing.Service {
	if s := GetServices(c); s != nil {
		return s.Ticketing
	}
	return nil
}

func GetTokenIssuer(c *gin.Context) *identity.TokenIssuer {
	if s := GetServices(c); s != nil {
		return s.Tokens
	}
	return nil
}

func GetDenylist(c *gin.Context) *session.Denylist {
	if s := GetServices(c); s != nil {
		return s.Denylist
	}
	return nil
}
