package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
)

// PaymentHandler serves the payment verification callback.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates the payment handler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type verifyPaymentRequest struct {
	OrderID           uuid.UUID `json:"orderId" validate:"required"`
	RazorpayOrderID   string    `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string    `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string    `json:"razorpaySignature" validate:"required"`
	Method            string    `json:"method"`
}

// Verify handles POST /api/payments/verify: the client-side callback after
// the gateway checkout completes. Safe to replay.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	order, err := h.payments.VerifyAndConfirm(r.Context(), service.VerifyPaymentParams{
		OrderID:           req.OrderID,
		ProviderOrderID:   req.RazorpayOrderID,
		ProviderPaymentID: req.RazorpayPaymentID,
		ProviderSignature: req.RazorpaySignature,
		Method:            req.Method,
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}
