package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/models"
)

const (
	userIDKey    = "user_id"
	userKey      = "user"
	principalKey = "principal"
	claimsKey    = "claims"
)

// JWTAuthMiddleware authenticates the bearer token and loads the account
// behind it. Role and approval come from the database, not the token, so
// an admin's changes apply on the next request.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			helpers.AbortWithError(c, http.StatusUnauthorized, "Authorization header missing or malformed.")
			return
		}

		tokens := GetTokenIssuer(c)
		db := GetDB(c)
		if tokens == nil || db == nil {
			helpers.AbortWithError(c, http.StatusInternalServerError, "Authentication is not configured.")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			helpers.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		revoked, err := GetDenylist(c).IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Warn().Err(err).Msg("token denylist unavailable")
		}
		if revoked {
			helpers.AbortWithError(c, http.StatusUnauthorized, "Token has been revoked.")
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				helpers.AbortWithError(c, http.StatusUnauthorized, "Account no longer exists.")
				return
			}
			helpers.AbortWithError(c, http.StatusServiceUnavailable, "Error loading account.")
			return
		}
		if user.IsPendingOrganizer() {
			helpers.AbortWithError(c, http.StatusForbidden, "Organizer account is awaiting approval.")
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userKey, &user)
		c.Set(principalKey, identity.PrincipalOf(&user))
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequirePolicy rejects callers the policy does not admit.
func RequirePolicy(policy identity.Policy, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			helpers.AbortWithError(c, http.StatusUnauthorized, "User not authenticated.")
			return
		}
		if !policy(p) {
			helpers.AbortWithError(c, http.StatusForbidden, message)
			return
		}
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return identity.Principal{}, false
	}
	return v.(identity.Principal), true
}

func GetUser(c *gin.Context) *models.User {
	v, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	return v.(*models.User)
}

func GetClaims(c *gin.Context) *identity.Claims {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	return v.(*identity.Claims)
}
