package dto

// GatewayCallbackRequest is the payment gateway notification body.
type GatewayCallbackRequest struct {
	OrderID       string `json:"orderId"`
	ResultCode    int    `json:"resultCode"`
	Amount        int64  `json:"amount"`
	TransactionID string `json:"transId"`
}
