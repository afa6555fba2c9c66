// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"context"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// Result is a generated invoice: the document bytes plus the URL path it
// was published under.
type Result struct {
	URL string // e.g. /invoices/KDS17251234560001.pdf
	PDF []byte
}

// Generator renders an invoice for a paid order.
type Generator interface {
	Generate(ctx context.Context, order *domain.Order) (*Result, error)
}
