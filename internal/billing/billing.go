// Package billing abstracts the payment gateway used to collect order
// payments. The production implementation talks to Razorpay; tests use
// the in-package mock.
package billing

import (
	"context"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// Signature verification failure, surfaced unchanged by the payment service.
var ErrInvalidSignature = domain.ErrInvalidSignature

// CreateOrderParams describes a gateway order to collect payment against.
type CreateOrderParams struct {
	AmountMinor int64  // minor currency units (paise)
	Currency    string // ISO code, e.g. "INR"
	Receipt     string // our order number, echoed back by the gateway
	Notes       map[string]string
}

// ProviderOrder is the gateway's record of a pending payment.
type ProviderOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
}

// Provider is the payment gateway contract.
type Provider interface {
	// CreateOrder registers a payment intent with the gateway and returns
	// the gateway order the client checkout widget is opened against.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error)

	// VerifySignature checks the callback signature the gateway computed
	// over the order and payment identifiers. Returns ErrInvalidSignature
	// when the signature does not match.
	VerifySignature(providerOrderID, providerPaymentID, signature string) error
}
