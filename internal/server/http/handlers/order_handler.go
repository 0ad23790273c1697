package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

type orderFacade interface {
	OrderFacade
	IdentityResolver
}

// OrderHandler manages checkout and customer order endpoints.
type OrderHandler struct {
	facade orderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade orderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Checkout handles POST /api/orders. A repeated submission inside the
// duplicate window answers 200 with the existing order instead of 201.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, created, err := h.facade.Checkout(c.Request.Context(), toNewOrder(req))
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, toOrderResponse(*order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// TransferQR handles GET /api/orders/:id/qr.
func (h *OrderHandler) TransferQR(c *gin.Context) {
	png, err := h.facade.TransferQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// List handles GET /api/user/orders.
func (h *OrderHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c, h.facade)
	if !ok {
		return
	}

	orders, err := h.facade.CustomerOrders(c.Request.Context(), identity)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// PayWithWallet handles POST /api/user/orders/:id/pay-wallet.
func (h *OrderHandler) PayWithWallet(c *gin.Context) {
	identity, ok := currentIdentity(c, h.facade)
	if !ok {
		return
	}

	report, err := h.facade.PayWithWallet(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCascadeReportResponse(report))
}

func toNewOrder(req dto.CheckoutRequest) model.NewOrder {
	items := make([]model.NewOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.NewOrderItem{
			VariantID:          it.VariantID,
			Quantity:           it.Quantity,
			PromotionVariantID: it.PromotionVariantID,
		})
	}
	return model.NewOrder{
		CustomerName:  req.CustomerName,
		Email:         req.Email,
		Phone:         req.Phone,
		Items:         items,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		VoucherCode:   req.VoucherCode,
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, dto.OrderItemResponse{
			CatalogItemID:      it.CatalogItemID,
			VariantID:          it.VariantID,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			PromotionVariantID: it.PromotionVariantID,
		})
	}
	return dto.OrderResponse{
		ID:            order.ID,
		CustomerName:  order.CustomerName,
		Email:         order.Email,
		Phone:         order.Phone,
		Items:         items,
		Total:         order.Total,
		Discount:      order.Discount,
		VoucherCode:   order.VoucherCode,
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		Status:        string(order.Status),
		TransferToken: order.TransferToken,
		CreatedAt:     order.CreatedAt,
		PaidAt:        order.PaidAt,
	}
}

func toCascadeReportResponse(report *model.CascadeReport) dto.CascadeReportResponse {
	steps := make([]dto.StepResponse, 0, len(report.Steps))
	for _, s := range report.Steps {
		steps = append(steps, dto.StepResponse{Key: s.Key, State: string(s.State), Detail: s.Detail})
	}
	resp := dto.CascadeReportResponse{
		Claimed: report.Claimed,
		Source:  string(report.Source),
		Steps:   steps,
	}
	if report.Order != nil {
		resp.Order = toOrderResponse(*report.Order)
	}
	return resp
}
