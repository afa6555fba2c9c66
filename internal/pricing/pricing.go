package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// Pricing-specific errors.
var (
	ErrNoLines           = domain.Errorf(domain.EINVALID, "pricing.quote", "at least one line item is required")
	ErrNegativeUnitPrice = domain.Errorf(domain.EINVALID, "pricing.quote", "variant adjustment drives unit price below zero")
)

// CatalogResolver resolves a product and variant for a quote line.
// Implemented by the catalog service; tests use an in-memory fake.
type CatalogResolver interface {
	ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (*domain.Product, *domain.Variant, error)
}

// Config is the tenant configuration snapshot a quote is computed against.
// All monetary values are minor currency units.
type Config struct {
	TaxRatePercent float64
	DeliveryCharge int64
	Discount       int64
}

// LineRequest is one requested order line.
type LineRequest struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
}

// QuoteLine is a priced line with the catalog snapshot taken at quote time.
type QuoteLine struct {
	ProductID          uuid.UUID
	VariantID          uuid.UUID
	ProductName        string
	SKU                string
	VariantDescription string
	Quantity           int32
	UnitPrice          int64 // minor units
	LineTotal          int64 // minor units
}

// Quote is the complete pricing breakdown for a set of lines.
// Invariant: Total == Subtotal + Tax + DeliveryCharge - Discount.
type Quote struct {
	Lines          []QuoteLine
	Subtotal       int64
	Tax            int64
	TaxRatePercent float64
	DeliveryCharge int64
	Discount       int64
	Total          int64
}

// Engine computes pricing quotes. It holds no mutable state; the settings
// snapshot is passed per call rather than read ambiently.
type Engine struct {
	catalog CatalogResolver
}

// NewEngine creates a pricing engine over the given catalog.
func NewEngine(catalog CatalogResolver) *Engine {
	return &Engine{catalog: catalog}
}

// Quote prices the requested lines against the current catalog and the given
// configuration snapshot. Each line is resolved and checked against available
// stock. The stock check here is advisory; the authoritative re-check happens
// inside the payment confirmation transaction.
func (e *Engine) Quote(ctx context.Context, lines []LineRequest, cfg Config) (*Quote, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	quote := &Quote{
		Lines:          make([]QuoteLine, 0, len(lines)),
		TaxRatePercent: cfg.TaxRatePercent,
		DeliveryCharge: cfg.DeliveryCharge,
		Discount:       cfg.Discount,
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.Invalid("pricing.quote", fmt.Sprintf("invalid quantity %d for variant %s", line.Quantity, line.VariantID))
		}

		product, variant, err := e.catalog.ResolveVariant(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}

		if variant.Stock < line.Quantity {
			return nil, domain.ErrInsufficientStock
		}

		unitPrice := product.BasePrice + variant.PriceAdjustment
		if unitPrice < 0 {
			return nil, ErrNegativeUnitPrice
		}

		lineTotal := unitPrice * int64(line.Quantity)
		quote.Subtotal += lineTotal

		quote.Lines = append(quote.Lines, QuoteLine{
			ProductID:          product.ID,
			VariantID:          variant.ID,
			ProductName:        product.Name,
			SKU:                variant.SKU,
			VariantDescription: variant.Description(),
			Quantity:           line.Quantity,
			UnitPrice:          unitPrice,
			LineTotal:          lineTotal,
		})
	}

	quote.Tax = taxOn(quote.Subtotal, cfg.TaxRatePercent)
	quote.Total = quote.Subtotal + quote.Tax + quote.DeliveryCharge - quote.Discount

	return quote, nil
}

// taxOn computes tax in minor units, rounding half away from zero.
func taxOn(subtotal int64, ratePercent float64) int64 {
	return int64(math.Round(float64(subtotal) * ratePercent / 100))
}
