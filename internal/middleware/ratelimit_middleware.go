package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/metrics"
	"github.com/farellandr/eventease/internal/session"
)

// RateLimit counts requests per user when authenticated, otherwise per
// client IP.
func RateLimit(limiter *session.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, exists := c.Get(userIDKey); exists {
			key = fmt.Sprintf("user:%d", userID)
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("scope", limiter.Scope()).Msg("rate limiter unavailable")
		}
		if !allowed {
			metrics.RateLimited.WithLabelValues(limiter.Scope()).Inc()
			helpers.AbortWithError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
