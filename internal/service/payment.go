package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/billing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/jobs"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/telemetry"
)

// maxConfirmAttempts bounds retries on transaction conflicts before the
// failure is surfaced as insufficient stock.
const maxConfirmAttempts = 3

// VerifyPaymentParams carries the gateway callback the client posts after
// checkout completes.
type VerifyPaymentParams struct {
	OrderID           uuid.UUID
	ProviderOrderID   string
	ProviderPaymentID string
	ProviderSignature string
	Method            string
}

// PaymentService verifies gateway callbacks and confirms orders.
type PaymentService struct {
	orders   domain.OrderStore
	provider billing.Provider
	queue    jobs.Queue
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// NewPaymentService creates the payment service.
func NewPaymentService(
	orders domain.OrderStore,
	provider billing.Provider,
	queue jobs.Queue,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		orders:   orders,
		provider: provider,
		queue:    queue,
		metrics:  metrics,
		logger:   logger,
	}
}

// VerifyAndConfirm validates the gateway signature and, on success, applies
// the atomic confirmation: payment Completed, order Confirmed, and every
// stock decrement in one transaction.
//
// Replays against an already-Completed order succeed without touching stock.
// A tampered signature fails with ErrInvalidSignature and leaves the order
// Pending. Side effects (invoice, emails) are queued best effort and never
// roll a confirmed payment back.
func (s *PaymentService) VerifyAndConfirm(ctx context.Context, params VerifyPaymentParams) (*domain.Order, error) {
	const op = "service.payment.verify_and_confirm"

	order, err := s.orders.GetOrder(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	providerOrderID := params.ProviderOrderID
	if providerOrderID == "" {
		providerOrderID = order.Payment.ProviderOrderID
	}
	if providerOrderID != order.Payment.ProviderOrderID {
		s.metrics.VerificationFailures.Inc()
		return nil, domain.ErrInvalidSignature
	}

	// Verify before any state changes. The comparison inside the provider
	// is constant-time.
	if err := s.provider.VerifySignature(providerOrderID, params.ProviderPaymentID, params.ProviderSignature); err != nil {
		s.metrics.VerificationFailures.Inc()
		s.logger.Warn("payment signature verification failed",
			"order_id", params.OrderID, "provider_order_id", providerOrderID)
		return nil, err
	}

	// Idempotent replay: the order is already paid.
	if order.Payment.Status == domain.PaymentStatusCompleted {
		s.logger.Info("payment confirmation replayed", "order_id", order.ID)
		return order, nil
	}

	confirmed, err := s.confirmWithRetry(ctx, domain.ConfirmPaymentParams{
		OrderID:           params.OrderID,
		ProviderPaymentID: params.ProviderPaymentID,
		ProviderSignature: params.ProviderSignature,
		Method:            params.Method,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.OversellPrevented.Inc()
		}
		return nil, err
	}

	s.metrics.OrdersConfirmed.Inc()
	s.logger.Info("payment confirmed",
		"order_id", confirmed.ID,
		"order_number", confirmed.OrderNumber,
		"payment_id", params.ProviderPaymentID,
	)

	s.enqueueSideEffects(ctx, confirmed)
	return confirmed, nil
}

// confirmWithRetry retries the confirmation transaction on serialization
// conflicts. Exhausted retries surface as insufficient stock so the caller
// sees a terminal answer rather than a transient one.
func (s *PaymentService) confirmWithRetry(ctx context.Context, params domain.ConfirmPaymentParams) (*domain.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= maxConfirmAttempts; attempt++ {
		order, err := s.orders.ConfirmPayment(ctx, params)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("confirmation conflicted, retrying",
			"order_id", params.OrderID, "attempt", attempt)
	}
	s.logger.Warn("confirmation retries exhausted", "order_id", params.OrderID, "error", lastErr)
	return nil, domain.ErrInsufficientStock
}

// enqueueSideEffects queues the post-confirmation work. Failures are logged
// and dropped; the confirmation itself already committed.
func (s *PaymentService) enqueueSideEffects(ctx context.Context, order *domain.Order) {
	if err := jobs.EnqueueGenerateInvoice(ctx, s.queue, order.ID); err != nil {
		s.logger.Error("failed to enqueue invoice generation", "order_id", order.ID, "error", err)
	}
	if err := jobs.EnqueueOrderConfirmationEmail(ctx, s.queue, order.ID); err != nil {
		s.logger.Error("failed to enqueue confirmation email", "order_id", order.ID, "error", err)
	}
	if err := jobs.EnqueueAdminOrderAlert(ctx, s.queue, order.ID); err != nil {
		s.logger.Error("failed to enqueue admin alert", "order_id", order.ID, "error", err)
	}
}
