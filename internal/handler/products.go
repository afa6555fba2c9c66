package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	catalog domain.CatalogService
}

// NewProductHandler creates the catalog handler.
func NewProductHandler(catalog domain.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type variantResponse struct {
	ID              uuid.UUID  `json:"id"`
	SKU             string     `json:"sku"`
	Type            string     `json:"type"`
	Size            string     `json:"size"`
	Fragrance       string     `json:"fragrance"`
	PriceAdjustment int64      `json:"priceAdjustment"`
	Stock           int32      `json:"stock"`
	LastRestocked   *time.Time `json:"lastRestocked,omitempty"`
}

type productResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	BasePrice   int64             `json:"basePrice"`
	IsActive    bool              `json:"isActive"`
	TotalStock  int32             `json:"totalStock"`
	Variants    []variantResponse `json:"variants"`
}

func toProductResponse(p *domain.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		BasePrice:   p.BasePrice,
		IsActive:    p.IsActive,
		TotalStock:  p.TotalStock(),
		Variants:    make([]variantResponse, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, variantResponse{
			ID:              v.ID,
			SKU:             v.SKU,
			Type:            v.Type,
			Size:            v.Size,
			Fragrance:       v.Fragrance,
			PriceAdjustment: v.PriceAdjustment,
			Stock:           v.Stock,
			LastRestocked:   v.LastRestocked,
		})
	}
	return resp
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	RespondJSON(w, http.StatusOK, map[string]any{"products": out})
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"product": toProductResponse(product)})
}

type createProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	BasePrice   int64  `json:"basePrice" validate:"gte=0"`
	IsActive    *bool  `json:"isActive"`
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	product, err := h.catalog.CreateProduct(r.Context(), domain.CreateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		IsActive:    active,
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]any{"product": toProductResponse(product)})
}

type updateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Category    *string `json:"category" validate:"omitempty,min=1"`
	BasePrice   *int64  `json:"basePrice" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"isActive"`
}

// Update handles PATCH /api/admin/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, err)
		return
	}

	var req updateProductRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, domain.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		IsActive:    req.IsActive,
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"product": toProductResponse(product)})
}

type createVariantRequest struct {
	SKU             string `json:"sku" validate:"required"`
	Type            string `json:"type" validate:"required"`
	Size            string `json:"size" validate:"required"`
	Fragrance       string `json:"fragrance" validate:"required"`
	PriceAdjustment int64  `json:"priceAdjustment"`
	Stock           int32  `json:"stock" validate:"gte=0"`
}

// CreateVariant handles POST /api/admin/products/{id}/variants.
func (h *ProductHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, err)
		return
	}

	var req createVariantRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	variant, err := h.catalog.CreateVariant(r.Context(), domain.CreateVariantParams{
		ProductID:       productID,
		SKU:             req.SKU,
		Type:            req.Type,
		Size:            req.Size,
		Fragrance:       req.Fragrance,
		PriceAdjustment: req.PriceAdjustment,
		Stock:           req.Stock,
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]any{"variant": variantResponse{
		ID:              variant.ID,
		SKU:             variant.SKU,
		Type:            variant.Type,
		Size:            variant.Size,
		Fragrance:       variant.Fragrance,
		PriceAdjustment: variant.PriceAdjustment,
		Stock:           variant.Stock,
		LastRestocked:   variant.LastRestocked,
	}})
}

type restockRequest struct {
	Quantity int32 `json:"quantity" validate:"gt=0"`
}

// Restock handles POST /api/admin/variants/{id}/restock.
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, err)
		return
	}

	var req restockRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	variant, err := h.catalog.RestockVariant(r.Context(), variantID, req.Quantity)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"sku":           variant.SKU,
		"stock":         variant.Stock,
		"lastRestocked": variant.LastRestocked,
	})
}
