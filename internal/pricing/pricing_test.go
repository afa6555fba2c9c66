package pricing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/pricing"
)

type fakeCatalog struct {
	products map[uuid.UUID]*domain.Product
}

func (f *fakeCatalog) ResolveVariant(_ context.Context, productID, variantID uuid.UUID) (*domain.Product, *domain.Variant, error) {
	p, ok := f.products[productID]
	if !ok || !p.IsActive {
		return nil, nil, domain.ErrProductNotFound
	}
	v := p.Variant(variantID)
	if v == nil {
		return nil, nil, domain.ErrVariantNotFound
	}
	return p, v, nil
}

func newCatalogFixture() (*fakeCatalog, *domain.Product) {
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "Fresh Step Deodoriser",
		Category:  "spray",
		BasePrice: 12000, // 120.00 in minor units
		IsActive:  true,
	}
	product.Variants = []domain.Variant{
		{ID: uuid.New(), ProductID: product.ID, SKU: "FS-SPR-100-LAV", Type: "spray", Size: "100ml", Fragrance: "lavender", PriceAdjustment: 500, Stock: 25},
		{ID: uuid.New(), ProductID: product.ID, SKU: "FS-SPR-250-LAV", Type: "spray", Size: "250ml", Fragrance: "lavender", PriceAdjustment: -500, Stock: 3},
		{ID: uuid.New(), ProductID: product.ID, SKU: "FS-SPR-050-MNT", Type: "spray", Size: "50ml", Fragrance: "mint", PriceAdjustment: -15000, Stock: 10},
	}
	return &fakeCatalog{products: map[uuid.UUID]*domain.Product{product.ID: product}}, product
}

func Test_Engine_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("computes subtotal, tax, and total in minor units", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		quote, err := engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 2},
		}, pricing.Config{TaxRatePercent: 18, DeliveryCharge: 4000})
		require.NoError(t, err)

		// unit = 12000 + 500 = 12500, x2 = 25000
		assert.Equal(t, int64(25000), quote.Subtotal)
		assert.Equal(t, int64(4500), quote.Tax)
		assert.Equal(t, int64(4000), quote.DeliveryCharge)
		assert.Equal(t, int64(33500), quote.Total)
		require.Len(t, quote.Lines, 1)
		assert.Equal(t, int64(12500), quote.Lines[0].UnitPrice)
		assert.Equal(t, "FS-SPR-100-LAV", quote.Lines[0].SKU)
		assert.Equal(t, "spray - 100ml - lavender", quote.Lines[0].VariantDescription)
	})

	t.Run("applies negative adjustments and discounts", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		quote, err := engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: product.Variants[1].ID, Quantity: 1},
		}, pricing.Config{TaxRatePercent: 18, DeliveryCharge: 4000, Discount: 1000})
		require.NoError(t, err)

		// unit = 12000 - 500 = 11500
		assert.Equal(t, int64(11500), quote.Subtotal)
		assert.Equal(t, int64(2070), quote.Tax)
		assert.Equal(t, int64(11500+2070+4000-1000), quote.Total)
	})

	t.Run("rounds fractional tax half away from zero", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		quote, err := engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: product.Variants[1].ID, Quantity: 1},
		}, pricing.Config{TaxRatePercent: 12.5})
		require.NoError(t, err)

		// 11500 * 12.5% = 1437.5 -> 1438
		assert.Equal(t, int64(1438), quote.Tax)
	})

	t.Run("rejects unit price below zero", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		_, err := engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: product.Variants[2].ID, Quantity: 1},
		}, pricing.Config{TaxRatePercent: 18})
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("rejects quantity above available stock", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		_, err := engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: product.Variants[1].ID, Quantity: 4},
		}, pricing.Config{TaxRatePercent: 18})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	})

	t.Run("rejects empty and zero-quantity lines", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		_, err := engine.Quote(ctx, nil, pricing.Config{})
		assert.ErrorIs(t, err, pricing.ErrNoLines)

		_, err = engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 0},
		}, pricing.Config{})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("unknown variant surfaces not found", func(t *testing.T) {
		catalog, product := newCatalogFixture()
		engine := pricing.NewEngine(catalog)

		_, err := engine.Quote(ctx, []pricing.LineRequest{
			{ProductID: product.ID, VariantID: uuid.New(), Quantity: 1},
		}, pricing.Config{})
		assert.ErrorIs(t, err, domain.ErrVariantNotFound)
	})
}
