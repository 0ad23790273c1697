package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// currentIdentity resolves the email of the authenticated user. It writes the
// error response itself and reports false when the request must stop.
func currentIdentity(c *gin.Context, resolver IdentityResolver) (string, bool) {
	identity, err := resolver.Identity(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusUnauthorized)
			return "", false
		}
		c.Status(http.StatusInternalServerError)
		return "", false
	}
	return identity, true
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrInvalidOrder),
		errors.Is(err, domainErrors.ErrInvalidAmount),
		errors.Is(err, domainErrors.ErrInvalidVoucher),
		errors.Is(err, domainErrors.ErrInvalidCredentials),
		errors.Is(err, domainErrors.ErrVoucherUnavailable),
		errors.Is(err, domainErrors.ErrProtectedField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domainErrors.ErrAlreadyExists),
		errors.Is(err, domainErrors.ErrInvalidTransition),
		errors.Is(err, domainErrors.ErrConcurrentUpdate),
		errors.Is(err, domainErrors.ErrInsufficientStock),
		errors.Is(err, domainErrors.ErrPromotionSoldOut),
		errors.Is(err, domainErrors.ErrSweepInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
