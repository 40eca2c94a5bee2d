package apperror

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Status maps an error onto the HTTP status code of its kind.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the JSON error body for err. Unclassified errors are logged
// and replaced by fallback so internal details never reach the client.
func Respond(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status := Status(err)

	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		c.JSON(status, gin.H{
			"error":    quota.Error(),
			"used_mb":  math.Round(quota.UsedMB()*100) / 100,
			"limit_mb": quota.LimitMB(),
		})
		return
	}

	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error(fallback, zap.Error(err))
		}
		c.JSON(status, gin.H{"error": fallback})
		return
	}

	msg := err.Error()
	var appErr *Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.JSON(status, gin.H{"error": msg})
}
