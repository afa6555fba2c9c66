package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock payment gateway for testing. It simulates
// successful flows without calling the Razorpay API.
type MockProvider struct {
	// CreateOrderFunc allows customizing order creation behavior
	CreateOrderFunc func(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error)

	// VerifySignatureFunc allows customizing signature verification behavior
	VerifySignatureFunc func(providerOrderID, providerPaymentID, signature string) error

	// Orders stores created gateway orders for retrieval
	Orders map[string]*ProviderOrder

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock payment gateway.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Orders:  make(map[string]*ProviderOrder),
		CallLog: []string{},
	}
}

// CreateOrder creates a mock gateway order.
func (m *MockProvider) CreateOrder(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateOrder(%d, %s)", params.AmountMinor, params.Currency))

	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, params)
	}

	order := &ProviderOrder{
		ID:          "order_" + uuid.New().String(),
		AmountMinor: params.AmountMinor,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
	}
	m.Orders[order.ID] = order
	return order, nil
}

// VerifySignature accepts every signature by default.
func (m *MockProvider) VerifySignature(providerOrderID, providerPaymentID, signature string) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("VerifySignature(%s, %s)", providerOrderID, providerPaymentID))

	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(providerOrderID, providerPaymentID, signature)
	}
	return nil
}

var _ Provider = (*MockProvider)(nil)
