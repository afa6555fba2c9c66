package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/pricing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
)

// OrderHandler serves checkout and order retrieval.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemResponse struct {
	ProductID   uuid.UUID `json:"productId"`
	VariantID   uuid.UUID `json:"variantId"`
	ProductName string    `json:"productName"`
	SKU         string    `json:"sku"`
	Variant     string    `json:"variant"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	LineTotal   int64     `json:"lineTotal"`
}

type statusEntryResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type orderResponse struct {
	ID                uuid.UUID             `json:"id"`
	OrderNumber       string                `json:"orderNumber"`
	Status            string                `json:"status"`
	PaymentStatus     string                `json:"paymentStatus"`
	Items             []orderItemResponse   `json:"items"`
	Subtotal          int64                 `json:"subtotal"`
	Tax               int64                 `json:"tax"`
	TaxRatePercent    float64               `json:"taxRatePercent"`
	DeliveryCharge    int64                 `json:"deliveryCharge"`
	Discount          int64                 `json:"discount"`
	Total             int64                 `json:"total"`
	EstimatedDelivery time.Time             `json:"estimatedDelivery"`
	DeliveredAt       *time.Time            `json:"deliveredAt,omitempty"`
	InvoiceURL        string                `json:"invoiceUrl,omitempty"`
	History           []statusEntryResponse `json:"history,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		Status:            string(o.Status),
		PaymentStatus:     string(o.Payment.Status),
		Subtotal:          o.Pricing.Subtotal,
		Tax:               o.Pricing.Tax,
		TaxRatePercent:    o.Pricing.TaxRatePercent,
		DeliveryCharge:    o.Pricing.DeliveryCharge,
		Discount:          o.Pricing.Discount,
		Total:             o.Pricing.Total,
		EstimatedDelivery: o.EstimatedDelivery,
		DeliveredAt:       o.DeliveredAt,
		InvoiceURL:        o.InvoiceURL,
		CreatedAt:         o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Variant:     item.VariantDescription,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	for _, entry := range o.History {
		resp.History = append(resp.History, statusEntryResponse{
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp,
			Note:      entry.Note,
		})
	}
	return resp
}

type orderLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	VariantID uuid.UUID `json:"variantId" validate:"required"`
	Quantity  int32     `json:"quantity" validate:"gt=0"`
}

type addressRequest struct {
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Pincode      string `json:"pincode" validate:"required"`
}

type createOrderRequest struct {
	Items   []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	Address addressRequest     `json:"address" validate:"required"`
}

// Create handles POST /api/orders: price the cart, persist a Pending order,
// and hand back the gateway order for the checkout widget.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFrom(r.Context())
	if !ok {
		RespondError(w, r, domain.Unauthorized("handler.orders.create", "authentication required"))
		return
	}

	var req createOrderRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	lines := make([]pricing.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, pricing.LineRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.orders.CreateOrder(r.Context(), service.CreateOrderParams{
		UserID:        user.ID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Lines:         lines,
		Address: domain.Address{
			FullName:     req.Address.FullName,
			Phone:        req.Address.Phone,
			AddressLine1: req.Address.AddressLine1,
			AddressLine2: req.Address.AddressLine2,
			City:         req.Address.City,
			State:        req.Address.State,
			Pincode:      req.Address.Pincode,
		},
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"order": toOrderResponse(result.Order),
		"payment": map[string]any{
			"providerOrderId": result.ProviderOrderID,
			"amount":          result.Order.Pricing.Total,
			"currency":        result.Currency,
		},
	})
}

// List handles GET /api/orders: the caller's orders, or all for admins.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	RespondJSON(w, http.StatusOK, map[string]any{"orders": out})
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}
