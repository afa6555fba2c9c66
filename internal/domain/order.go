package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order-related domain errors.
var (
	ErrOrderNotFound       = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrInsufficientStock   = &Error{Code: ECONFLICT, Message: "Insufficient stock for one or more items"}
	ErrConcurrencyConflict = &Error{Code: ECONFLICT, Message: "Stock update conflicted with a concurrent confirmation"}
	ErrInvalidSignature    = &Error{Code: EPAYMENT, Message: "Invalid payment signature"}
	ErrInvalidTransition   = &Error{Code: ECONFLICT, Message: "Order status transition not allowed"}
	ErrEmptyOrder          = &Error{Code: EINVALID, Message: "Order must contain at least one item"}
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusConfirmed  OrderStatus = "Confirmed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// orderTransitions is the allowed fulfillment transition graph.
// Delivered and Cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the state of the embedded payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// OrderItem is an immutable line snapshot taken at order creation.
// UnitPrice is the price at order time and is never recomputed.
type OrderItem struct {
	ID                 uuid.UUID
	ProductID          uuid.UUID
	VariantID          uuid.UUID
	ProductName        string
	SKU                string
	VariantDescription string
	Quantity           int32
	UnitPrice          int64 // minor units
	LineTotal          int64 // minor units, Quantity * UnitPrice
}

// Pricing is the monetary breakdown captured at order creation.
// Invariant: Total == Subtotal + Tax + DeliveryCharge - Discount.
type Pricing struct {
	Subtotal       int64 // minor units
	Tax            int64 // minor units
	TaxRatePercent float64
	DeliveryCharge int64 // minor units
	Discount       int64 // minor units
	Total          int64 // minor units
}

// PaymentInfo is the payment record embedded in an order.
type PaymentInfo struct {
	ProviderOrderID   string
	ProviderPaymentID string
	ProviderSignature string
	Method            string
	Status            PaymentStatus
}

// StatusEntry is one row of the append-only status history log.
type StatusEntry struct {
	Status    OrderStatus
	Timestamp time.Time
	Note      string
}

// Address is the shipping address snapshot stored on the order.
type Address struct {
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
}

// Order is the order aggregate. It exclusively owns its embedded items,
// pricing snapshot and history; it references the purchasing user and each
// product/variant without owning them.
type Order struct {
	ID          uuid.UUID
	OrderNumber string

	UserID        uuid.UUID
	CustomerName  string
	CustomerEmail string

	Items           []OrderItem
	Pricing         Pricing
	ShippingAddress Address

	Payment PaymentInfo
	Status  OrderStatus
	History []StatusEntry

	EstimatedDelivery time.Time
	DeliveredAt       *time.Time
	InvoiceURL        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConfirmPaymentParams carries the provider payment details applied when a
// verified payment confirms an order.
type ConfirmPaymentParams struct {
	OrderID           uuid.UUID
	ProviderPaymentID string
	ProviderSignature string
	Method            string
}

// OrderStore persists order aggregates.
//
// ConfirmPayment must be atomic: the payment/fulfillment status change and
// every per-item stock decrement commit together or not at all. Each
// decrement is conditional on sufficient stock; a failed precondition yields
// ErrInsufficientStock with no partial application. ErrConcurrencyConflict
// signals a retryable serialization failure.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)

	// SetProviderOrderID records the payment provider's order ID after the
	// provider-side order is created.
	SetProviderOrderID(ctx context.Context, orderID uuid.UUID, providerOrderID string) error

	// ConfirmPayment transitions the order to Confirmed/Completed and applies
	// all stock decrements in one transaction. Calling it on an order whose
	// payment is already Completed is a no-op and returns the order unchanged.
	ConfirmPayment(ctx context.Context, params ConfirmPaymentParams) (*Order, error)

	// UpdateStatus applies an admin-driven fulfillment transition, validating
	// it against the transition graph, and appends a history entry.
	// Delivered additionally stamps DeliveredAt.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus, note string) (*Order, error)

	// SetInvoiceURL records the generated invoice artifact location.
	SetInvoiceURL(ctx context.Context, orderID uuid.UUID, url string) error
}
