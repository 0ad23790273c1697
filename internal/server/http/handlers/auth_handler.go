package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// AuthHandler processes registration and login. The email becomes the
// customer's wallet identity.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

type credentialsFunc func(ctx context.Context, email, password string) (string, error)

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	h.issue(c, h.facade.Register, http.StatusCreated)
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	h.issue(c, h.facade.Authenticate, http.StatusOK)
}

func (h *AuthHandler) issue(c *gin.Context, fn credentialsFunc, status int) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	token, err := fn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if status == http.StatusOK && errors.Is(err, domainErrors.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(status, dto.AuthResponse{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Token: token,
	})
}
