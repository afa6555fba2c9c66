package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// Ensure RazorpayProvider implements Provider
var _ Provider = (*RazorpayProvider)(nil)

// RazorpayProvider collects payments through Razorpay Checkout.
type RazorpayProvider struct {
	client *razorpay.Client
	secret string
}

// NewRazorpayProvider creates a provider with the given API credentials.
func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{
		client: razorpay.NewClient(keyID, keySecret),
		secret: keySecret,
	}
}

// CreateOrder registers a payment order with Razorpay.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error) {
	const op = "billing.RazorpayProvider.CreateOrder"

	data := map[string]interface{}{
		"amount":   params.AmountMinor,
		"currency": params.Currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		notes := make(map[string]interface{}, len(params.Notes))
		for k, v := range params.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	resp, err := p.client.Order.Create(data, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create payment order")
	}

	id, ok := resp["id"].(string)
	if !ok || id == "" {
		return nil, domain.Internal(nil, op, "payment gateway returned no order id")
	}

	return &ProviderOrder{
		ID:          id,
		AmountMinor: params.AmountMinor,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay computes over
// "<order_id>|<payment_id>" with the key secret. The comparison is
// constant-time.
func (p *RazorpayProvider) VerifySignature(providerOrderID, providerPaymentID, signature string) error {
	expected := signPayload(p.secret, providerOrderID+"|"+providerPaymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func signPayload(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
