package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// VoucherHandler serves public voucher endpoints.
type VoucherHandler struct {
	facade VoucherFacade
}

// NewVoucherHandler constructs VoucherHandler.
func NewVoucherHandler(facade VoucherFacade) *VoucherHandler {
	return &VoucherHandler{facade: facade}
}

// Popup handles GET /api/vouchers/popup.
func (h *VoucherHandler) Popup(c *gin.Context) {
	v, err := h.facade.PopupVoucher(c.Request.Context())
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	resp := dto.PopupResponse{
		Code:        v.Code,
		Percent:     v.Percent,
		MinOrder:    v.MinOrder,
		MaxDiscount: v.MaxDiscount,
		Remaining:   v.Remaining(),
	}
	if !v.EndsAt.IsZero() {
		ends := v.EndsAt
		resp.EndsAt = &ends
	}
	c.JSON(http.StatusOK, resp)
}

// Quote handles POST /api/vouchers/quote.
func (h *VoucherHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	discount, err := h.facade.QuoteVoucher(c.Request.Context(), req.Code, req.Email, req.Total)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QuoteResponse{Code: req.Code, Discount: discount})
}
