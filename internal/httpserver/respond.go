package httpserver

import (
	"errors"
	"net/http"

	"ecommerce-core/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondError maps the core's error kinds to transport status codes. This is
// the only place that translation happens.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInventory):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
