package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"artifact-server-go/internal/platform/errors"
)

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindAuth:
		return http.StatusUnauthorized
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes the error response body for a failed request. Successful
// responses carry their payload raw; failures always carry a message
// object.
func Fail(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{
		"message": errors.Message(err),
	})
}

// FailWith writes an error response with an explicit status and message.
func FailWith(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"message": message,
	})
}
