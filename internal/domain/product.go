package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Product-related domain errors.
var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrVariantNotFound = &Error{Code: ENOTFOUND, Message: "Variant not found"}
	ErrDuplicateSKU    = &Error{Code: ECONFLICT, Message: "SKU already exists"}
)

// Variant is a specific purchasable configuration of a product with its own
// SKU and stock count. Stock never goes below zero; SalesCount only grows.
type Variant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	SKU       string
	Type      string // Standard, Premium, Deluxe
	Size      string // Small, Medium, Large
	Fragrance string // Lavender, Cedar, Unscented, Mixed

	// PriceAdjustment is the signed difference from the product base price,
	// in minor currency units. Negative values discount the variant.
	PriceAdjustment int64

	Stock         int32
	SalesCount    int64
	LastRestocked *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Description renders the human-readable variant label used on order items,
// invoices and emails, e.g. "Premium - Large - Lavender".
func (v Variant) Description() string {
	return fmt.Sprintf("%s - %s - %s", v.Type, v.Size, v.Fragrance)
}

// Product is a catalog entry owning an ordered collection of variants.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    string

	// BasePrice is the product price in minor currency units before any
	// variant adjustment.
	BasePrice int64

	IsActive bool
	Variants []Variant

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant returns the variant with the given ID, or nil if the product does
// not own it.
func (p *Product) Variant(variantID uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// TotalStock sums available stock across all variants.
func (p *Product) TotalStock() int32 {
	var total int32
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// CreateProductParams contains parameters for creating a catalog product.
type CreateProductParams struct {
	Name        string
	Description string
	Category    string
	BasePrice   int64
	IsActive    bool
}

// UpdateProductParams contains the optional fields of a partial product
// update. Nil fields are left unchanged.
type UpdateProductParams struct {
	Name        *string
	Description *string
	Category    *string
	BasePrice   *int64
	IsActive    *bool
}

// CreateVariantParams contains parameters for adding a variant to a product.
type CreateVariantParams struct {
	ProductID       uuid.UUID
	SKU             string
	Type            string
	Size            string
	Fragrance       string
	PriceAdjustment int64
	Stock           int32
}

// CatalogService provides catalog operations over products and variants.
type CatalogService interface {
	// ListProducts returns all active products with their variants.
	ListProducts(ctx context.Context) ([]Product, error)

	// GetProduct retrieves a product with variants by ID.
	GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error)

	// ResolveVariant resolves a product and one of its variants.
	// Returns ErrProductNotFound or ErrVariantNotFound on a miss, and
	// ErrProductNotFound when the product is inactive.
	ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (*Product, *Variant, error)

	// CreateProduct creates a catalog product.
	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)

	// UpdateProduct applies a partial update to a product. Deactivating a
	// product hides it and its variants from the public catalog.
	UpdateProduct(ctx context.Context, productID uuid.UUID, params UpdateProductParams) (*Product, error)

	// CreateVariant adds a variant to an existing product.
	CreateVariant(ctx context.Context, params CreateVariantParams) (*Variant, error)

	// RestockVariant increases a variant's stock and stamps LastRestocked.
	RestockVariant(ctx context.Context, variantID uuid.UUID, quantity int32) (*Variant, error)

	// ListVariants returns every variant across active products, with the
	// owning product attached. Used by inventory analytics.
	ListVariants(ctx context.Context) ([]VariantWithProduct, error)
}

// VariantWithProduct pairs a variant with its owning product for reporting.
type VariantWithProduct struct {
	Variant     Variant
	ProductName string
	BasePrice   int64
}
