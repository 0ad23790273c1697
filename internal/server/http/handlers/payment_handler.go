package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// PaymentHandler receives payment gateway notifications.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// GatewayCallback handles POST /api/payments/gateway. The signature is checked by middleware.
func (h *PaymentHandler) GatewayCallback(c *gin.Context) {
	var req dto.GatewayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.HandleGatewayCallback(c.Request.Context(), model.GatewayCallback{
		OrderID:               req.OrderID,
		ResultCode:            req.ResultCode,
		Amount:                req.Amount,
		ExternalTransactionID: req.TransactionID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
