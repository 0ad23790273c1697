package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

const (
	defaultUnmatchedLimit = 50
	maxUnmatchedLimit     = 500
)

// AdminHandler exposes back office operations.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// ConfirmPayment handles POST /api/admin/orders/:id/confirm.
func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Status(http.StatusBadRequest)
		return
	}

	source := model.PaymentSource(req.Source)
	switch source {
	case "":
		source = model.PaymentSourceAdmin
	case model.PaymentSourceAdmin, model.PaymentSourceDelivery:
	default:
		c.Status(http.StatusBadRequest)
		return
	}

	report, err := h.facade.ConfirmPayment(c.Request.Context(), c.Param("id"), source)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCascadeReportResponse(report))
}

// UpdateStatus handles POST /api/admin/orders/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	status := model.OrderStatus(req.Status)
	if !status.Valid() {
		c.Status(http.StatusBadRequest)
		return
	}

	report, err := h.facade.UpdateOrderStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCascadeReportResponse(report))
}

// Reprocess handles POST /api/admin/orders/:id/reprocess.
func (h *AdminHandler) Reprocess(c *gin.Context) {
	report, err := h.facade.ReprocessOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCascadeReportResponse(report))
}

// Sweep handles POST /api/admin/reconcile.
func (h *AdminHandler) Sweep(c *gin.Context) {
	report, err := h.facade.ScanAndAutoConfirm(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SweepResponse{
		Scanned: report.Scanned,
		Matched: report.Matched,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Errors:  report.Errors,
	})
}

// ImportBankTransactions handles POST /api/admin/bank-transactions.
func (h *AdminHandler) ImportBankTransactions(c *gin.Context) {
	var req []dto.BankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	txs := make([]model.BankTransaction, 0, len(req))
	for _, r := range req {
		txs = append(txs, model.BankTransaction{
			ExternalID:  r.ExternalID,
			Amount:      r.Amount,
			Description: r.Description,
			Status:      model.BankTransactionStatus(r.Status),
			BookedAt:    r.BookedAt,
		})
	}

	imported, err := h.facade.ImportBankTransactions(c.Request.Context(), txs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ImportResponse{Imported: imported})
}

// UnmatchedBankTransactions handles GET /api/admin/bank-transactions/unmatched.
func (h *AdminHandler) UnmatchedBankTransactions(c *gin.Context) {
	limit := defaultUnmatchedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		limit = min(n, maxUnmatchedLimit)
	}

	txs, err := h.facade.UnmatchedBankTransactions(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.BankTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, dto.BankTransactionResponse{
			ID:          tx.ID,
			ExternalID:  tx.ExternalID,
			Amount:      tx.Amount,
			Description: tx.Description,
			Status:      string(tx.Status),
			OrderID:     tx.OrderID,
			BookedAt:    tx.BookedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePublicVoucher handles POST /api/admin/vouchers/public.
func (h *AdminHandler) CreatePublicVoucher(c *gin.Context) {
	var req dto.PublicVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	v := &model.PublicVoucher{
		Code:        req.Code,
		Quantity:    req.Quantity,
		Percent:     req.Percent,
		MinOrder:    req.MinOrder,
		MaxDiscount: req.MaxDiscount,
		StartsAt:    derefTime(req.StartsAt),
		EndsAt:      derefTime(req.EndsAt),
	}
	if err := h.facade.CreatePublicVoucher(c.Request.Context(), v); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": v.Code})
}

// CreateGiftVoucher handles POST /api/admin/vouchers/gift.
func (h *AdminHandler) CreateGiftVoucher(c *gin.Context) {
	var req dto.GiftVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	v := &model.GiftVoucher{
		Code:      req.Code,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		ExpiresAt: derefTime(req.ExpiresAt),
	}
	if err := h.facade.CreateGiftVoucher(c.Request.Context(), v); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": v.Code})
}

// SetPopup handles PUT /api/admin/vouchers/popup.
func (h *AdminHandler) SetPopup(c *gin.Context) {
	var req dto.PopupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.facade.SetPopupVoucher(c.Request.Context(), req.Code); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CatalogItem handles GET /api/admin/catalog/:id.
func (h *AdminHandler) CatalogItem(c *gin.Context) {
	item, err := h.facade.CatalogItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCatalogItemResponse(item))
}

// PatchCatalogItem handles PATCH /api/admin/catalog/:id. The body is a
// generic field map; the sold counter is rejected with 422.
func (h *AdminHandler) PatchCatalogItem(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	patch, err := toCatalogPatch(raw)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	item, err := h.facade.PatchCatalogItem(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCatalogItemResponse(item))
}

// Deposit handles POST /api/admin/wallets/deposits.
func (h *AdminHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	wallet, err := h.facade.Deposit(c.Request.Context(), req.Identity, req.Amount, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WalletResponse{Identity: wallet.Identity, Balance: wallet.Balance})
}

func toCatalogPatch(raw map[string]json.RawMessage) (model.CatalogItemPatch, error) {
	var patch model.CatalogItemPatch
	if v, ok := raw["name"]; ok {
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return patch, err
		}
		patch.Name = &name
	}
	if v, ok := raw["price"]; ok {
		var price int64
		if err := json.Unmarshal(v, &price); err != nil {
			return patch, err
		}
		patch.Price = &price
	}
	if v, ok := raw["sold"]; ok {
		var sold int
		if err := json.Unmarshal(v, &sold); err != nil {
			return patch, err
		}
		patch.Sold = &sold
	}
	return patch, nil
}

func toCatalogItemResponse(item *model.CatalogItem) dto.CatalogItemResponse {
	return dto.CatalogItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Sold:      item.Sold,
		UpdatedAt: item.UpdatedAt,
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
