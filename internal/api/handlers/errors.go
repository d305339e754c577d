package routes

import (
	"net/http"

	"eotile/internal/footprint"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// statusFor maps footprint construction errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, footprint.ErrMalformedInput):
		return http.StatusBadRequest, "malformed_input"
	case errors.Is(err, footprint.ErrUnrecognizedCrossing):
		return http.StatusUnprocessableEntity, "unrecognized_crossing"
	case errors.Is(err, footprint.ErrDegeneratePolygon):
		return http.StatusUnprocessableEntity, "degenerate_polygon"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.S().Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": err.Error(),
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   code,
		"message": message,
	})
}
