// Package service contains the application services tying the catalog,
// pricing, payment, and persistence layers together.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/billing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/jobs"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/pricing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/telemetry"
)

// estimatedDeliveryWindow is added to the order creation time.
const estimatedDeliveryWindow = 7 * 24 * time.Hour

// CreateOrderParams carries a checkout request.
type CreateOrderParams struct {
	UserID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	Lines         []pricing.LineRequest
	Address       domain.Address
}

// CreateOrderResult pairs the persisted order with the gateway order the
// client checkout widget opens against.
type CreateOrderResult struct {
	Order           *domain.Order
	ProviderOrderID string
	Currency        string
}

// OrderService coordinates order creation and fulfillment transitions.
type OrderService struct {
	orders   domain.OrderStore
	settings domain.SettingsService
	engine   *pricing.Engine
	provider billing.Provider
	queue    jobs.Queue
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	currency string
}

// NewOrderService creates the order service.
func NewOrderService(
	orders domain.OrderStore,
	settings domain.SettingsService,
	engine *pricing.Engine,
	provider billing.Provider,
	queue jobs.Queue,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		settings: settings,
		engine:   engine,
		provider: provider,
		queue:    queue,
		metrics:  metrics,
		logger:   logger,
		currency: "INR",
	}
}

// CreateOrder prices the requested lines against the current settings
// snapshot, persists a Pending order, and registers the payment with the
// gateway. The pricing breakdown is frozen on the order; later settings
// changes never alter it.
func (s *OrderService) CreateOrder(ctx context.Context, params CreateOrderParams) (*CreateOrderResult, error) {
	const op = "service.order.create"

	if len(params.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	snapshot, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := s.engine.Quote(ctx, params.Lines, pricing.Config{
		TaxRatePercent: snapshot.TaxRatePercent,
		DeliveryCharge: snapshot.DeliveryCharge,
	})
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   generateOrderNumber(),
		UserID:        params.UserID,
		CustomerName:  params.CustomerName,
		CustomerEmail: params.CustomerEmail,
		Pricing: domain.Pricing{
			Subtotal:       quote.Subtotal,
			Tax:            quote.Tax,
			TaxRatePercent: quote.TaxRatePercent,
			DeliveryCharge: quote.DeliveryCharge,
			Discount:       quote.Discount,
			Total:          quote.Total,
		},
		ShippingAddress:   params.Address,
		Payment:           domain.PaymentInfo{Status: domain.PaymentStatusPending},
		Status:            domain.OrderStatusPending,
		EstimatedDelivery: time.Now().Add(estimatedDeliveryWindow),
	}
	for _, line := range quote.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:                 uuid.New(),
			ProductID:          line.ProductID,
			VariantID:          line.VariantID,
			ProductName:        line.ProductName,
			SKU:                line.SKU,
			VariantDescription: line.VariantDescription,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			LineTotal:          line.LineTotal,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	providerOrder, err := s.provider.CreateOrder(ctx, billing.CreateOrderParams{
		AmountMinor: order.Pricing.Total,
		Currency:    s.currency,
		Receipt:     order.OrderNumber,
		Notes:       map[string]string{"order_id": order.ID.String()},
	})
	if err != nil {
		s.logger.Error("failed to register payment order with gateway",
			"order_id", order.ID, "error", err)
		return nil, err
	}

	if err := s.orders.SetProviderOrderID(ctx, order.ID, providerOrder.ID); err != nil {
		return nil, err
	}
	order.Payment.ProviderOrderID = providerOrder.ID

	s.metrics.OrdersCreated.Inc()
	s.logger.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total", order.Pricing.Total,
		"provider_order_id", providerOrder.ID,
	)

	return &CreateOrderResult{
		Order:           order,
		ProviderOrderID: providerOrder.ID,
		Currency:        s.currency,
	}, nil
}

// GetOrder returns the order, scoped to the owner unless the caller is an
// admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	user, ok := domain.UserFrom(ctx)
	if !ok {
		return nil, domain.Unauthorized("service.order.get", "authentication required")
	}
	if user.IsAdmin() {
		return s.orders.GetOrder(ctx, orderID)
	}
	return s.orders.GetOrderForUser(ctx, orderID, user.ID)
}

// ListOrders returns the caller's orders, or every order for admins.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	user, ok := domain.UserFrom(ctx)
	if !ok {
		return nil, domain.Unauthorized("service.order.list", "authentication required")
	}
	if user.IsAdmin() {
		return s.orders.ListOrders(ctx)
	}
	return s.orders.ListOrdersForUser(ctx, user.ID)
}

// UpdateStatus applies an admin fulfillment transition and queues the
// customer notification. The notification is best effort.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, note string) (*domain.Order, error) {
	order, err := s.orders.UpdateStatus(ctx, orderID, status, note)
	if err != nil {
		return nil, err
	}

	if err := jobs.EnqueueOrderStatusEmail(ctx, s.queue, order.ID, string(status), note); err != nil {
		s.logger.Error("failed to enqueue status email",
			"order_id", order.ID, "status", status, "error", err)
	}

	s.logger.Info("order status updated",
		"order_id", order.ID, "status", status)
	return order, nil
}

// generateOrderNumber produces a human-facing order number: the shop prefix,
// a millisecond timestamp, and a random 4-digit suffix to break same-instant
// collisions.
func generateOrderNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("KDS%d%04d", time.Now().UnixMilli(), suffix)
}
