package invoice

import (
	"context"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// MockGenerator is a mock invoice generator for testing.
type MockGenerator struct {
	// GenerateFunc allows customizing generation behavior
	GenerateFunc func(ctx context.Context, order *domain.Order) (*Result, error)

	// Generated records the orders invoices were requested for
	Generated []string
}

// NewMockGenerator creates a new mock invoice generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a placeholder PDF unless GenerateFunc is set.
func (m *MockGenerator) Generate(ctx context.Context, order *domain.Order) (*Result, error) {
	m.Generated = append(m.Generated, order.OrderNumber)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, order)
	}
	return &Result{
		URL: "/invoices/" + order.OrderNumber + ".pdf",
		PDF: []byte("%PDF-1.4 mock"),
	}, nil
}

var _ Generator = (*MockGenerator)(nil)
