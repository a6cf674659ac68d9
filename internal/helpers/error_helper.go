package helpers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventease/internal/payment"
)

const invalidInput = "Invalid input. Please check your fields."

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// AbortWithError responds and stops the handler chain. Used by middleware.
func AbortWithError(c *gin.Context, statusCode int, customMessage string) {
	RespondWithError(c, statusCode, customMessage)
	c.Abort()
}

// RespondWithValidation reports per-field messages with 422.
func RespondWithValidation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   HTTPStatusText(http.StatusUnprocessableEntity),
		Message: invalidInput,
		Fields:  fields,
	})
}

// RespondWithBindingError turns a ShouldBind error into a 422 with field
// messages.
func RespondWithBindingError(c *gin.Context, err error) {
	RespondWithValidation(c, payment.Translate(err))
}

// RespondRetryLater is a 503 that tells the client when to retry.
func RespondRetryLater(c *gin.Context, retryAfterSeconds int, customMessage string) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	RespondWithError(c, http.StatusServiceUnavailable, customMessage)
}
