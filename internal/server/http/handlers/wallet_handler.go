package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

type walletFacade interface {
	WalletFacade
	VoucherFacade
	IdentityResolver
}

// WalletHandler serves the customer wallet and voucher ledger.
type WalletHandler struct {
	facade walletFacade
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(facade walletFacade) *WalletHandler {
	return &WalletHandler{facade: facade}
}

// Balance handles GET /api/user/wallet.
func (h *WalletHandler) Balance(c *gin.Context) {
	identity, ok := currentIdentity(c, h.facade)
	if !ok {
		return
	}
	wallet, err := h.facade.Wallet(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WalletResponse{Identity: wallet.Identity, Balance: wallet.Balance})
}

// History handles GET /api/user/wallet/history.
func (h *WalletHandler) History(c *gin.Context) {
	identity, ok := currentIdentity(c, h.facade)
	if !ok {
		return
	}
	entries, err := h.facade.WalletHistory(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(entries) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.LedgerEntryResponse{
			Type:          string(e.Type),
			Amount:        e.Amount,
			Kind:          string(e.Kind),
			Reference:     e.Reference,
			PaymentMethod: string(e.PaymentMethod),
			CreatedAt:     e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// VoucherUsages handles GET /api/user/vouchers.
func (h *WalletHandler) VoucherUsages(c *gin.Context) {
	identity, ok := currentIdentity(c, h.facade)
	if !ok {
		return
	}
	usages, err := h.facade.VoucherUsages(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(usages) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.VoucherUsageResponse, 0, len(usages))
	for _, u := range usages {
		resp = append(resp, dto.VoucherUsageResponse{Code: u.Code, OrderID: u.OrderID, UsedAt: u.UsedAt})
	}
	c.JSON(http.StatusOK, resp)
}
