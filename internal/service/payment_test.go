package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/billing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/telemetry"
)

const gatewaySecret = "test_key_secret"

func gatewaySign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(gatewaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pendingOrder seeds the store with a Pending order and backing stock.
func pendingOrder(store *memOrderStore, items ...domain.OrderItem) *domain.Order {
	order := &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   "KDS17000000000001",
		UserID:        uuid.New(),
		CustomerName:  "Priya",
		CustomerEmail: "priya@example.com",
		Items:         items,
		Payment: domain.PaymentInfo{
			ProviderOrderID: "order_gw_" + uuid.New().String()[:8],
			Status:          domain.PaymentStatusPending,
		},
		Status:            domain.OrderStatusPending,
		EstimatedDelivery: time.Now().Add(7 * 24 * time.Hour),
	}
	for _, item := range items {
		order.Pricing.Subtotal += item.LineTotal
	}
	if err := store.CreateOrder(context.Background(), order); err != nil {
		panic(err)
	}
	return order
}

func item(variantID uuid.UUID, qty int32, unitPrice int64) domain.OrderItem {
	return domain.OrderItem{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		VariantID: variantID,
		SKU:       "SKU-" + variantID.String()[:8],
		Quantity:  qty,
		UnitPrice: unitPrice,
		LineTotal: unitPrice * int64(qty),
	}
}

func newPaymentService(store *memOrderStore, queue *memQueue) *service.PaymentService {
	provider := billing.NewRazorpayProvider("test_key_id", gatewaySecret)
	return service.NewPaymentService(store, provider, queue, telemetry.NewTestMetrics(), discardLogger())
}

func Test_PaymentService_VerifyAndConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms order and decrements stock exactly once", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		variantID := uuid.New()
		store.setStock(variantID, 10)
		order := pendingOrder(store, item(variantID, 2, 12500))

		svc := newPaymentService(store, queue)
		paymentID := "pay_123"
		sig := gatewaySign(order.Payment.ProviderOrderID, paymentID)

		confirmed, err := svc.VerifyAndConfirm(ctx, service.VerifyPaymentParams{
			OrderID:           order.ID,
			ProviderOrderID:   order.Payment.ProviderOrderID,
			ProviderPaymentID: paymentID,
			ProviderSignature: sig,
			Method:            "card",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)
		assert.Equal(t, domain.PaymentStatusCompleted, confirmed.Payment.Status)
		assert.Equal(t, int32(8), store.stockOf(variantID))
		assert.Equal(t, int64(2), store.salesOf(variantID))

		// side effects queued best effort
		types := queue.typesEnqueued()
		assert.Contains(t, types, "invoice:generate")
		assert.Contains(t, types, "email:order_confirmation")
		assert.Contains(t, types, "email:admin_order_alert")
	})

	t.Run("replay is a no-op success", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		variantID := uuid.New()
		store.setStock(variantID, 10)
		order := pendingOrder(store, item(variantID, 2, 12500))

		svc := newPaymentService(store, queue)
		paymentID := "pay_123"
		sig := gatewaySign(order.Payment.ProviderOrderID, paymentID)
		params := service.VerifyPaymentParams{
			OrderID:           order.ID,
			ProviderOrderID:   order.Payment.ProviderOrderID,
			ProviderPaymentID: paymentID,
			ProviderSignature: sig,
		}

		_, err := svc.VerifyAndConfirm(ctx, params)
		require.NoError(t, err)
		replayed, err := svc.VerifyAndConfirm(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, domain.PaymentStatusCompleted, replayed.Payment.Status)
		// no second decrement
		assert.Equal(t, int32(8), store.stockOf(variantID))
		assert.Equal(t, int64(2), store.salesOf(variantID))
	})

	t.Run("tampered signature leaves order pending and stock untouched", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		variantID := uuid.New()
		store.setStock(variantID, 10)
		order := pendingOrder(store, item(variantID, 2, 12500))

		svc := newPaymentService(store, queue)
		sig := gatewaySign(order.Payment.ProviderOrderID, "pay_123")
		tampered := "0" + sig[1:]
		if tampered == sig {
			tampered = "1" + sig[1:]
		}

		_, err := svc.VerifyAndConfirm(ctx, service.VerifyPaymentParams{
			OrderID:           order.ID,
			ProviderOrderID:   order.Payment.ProviderOrderID,
			ProviderPaymentID: "pay_123",
			ProviderSignature: tampered,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)

		after, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, after.Status)
		assert.Equal(t, domain.PaymentStatusPending, after.Payment.Status)
		assert.Equal(t, int32(10), store.stockOf(variantID))
		assert.Empty(t, queue.typesEnqueued())
	})

	t.Run("mismatched gateway order id is rejected", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		variantID := uuid.New()
		store.setStock(variantID, 10)
		order := pendingOrder(store, item(variantID, 1, 12500))

		svc := newPaymentService(store, queue)
		sig := gatewaySign("order_other", "pay_123")

		_, err := svc.VerifyAndConfirm(ctx, service.VerifyPaymentParams{
			OrderID:           order.ID,
			ProviderOrderID:   "order_other",
			ProviderPaymentID: "pay_123",
			ProviderSignature: sig,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("partial shortfall leaves payment and all stock unchanged", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		variantA := uuid.New()
		variantB := uuid.New()
		store.setStock(variantA, 10)
		store.setStock(variantB, 0) // second line cannot be satisfied
		order := pendingOrder(store, item(variantA, 2, 10000), item(variantB, 1, 5000))

		svc := newPaymentService(store, queue)
		paymentID := "pay_123"
		sig := gatewaySign(order.Payment.ProviderOrderID, paymentID)

		_, err := svc.VerifyAndConfirm(ctx, service.VerifyPaymentParams{
			OrderID:           order.ID,
			ProviderOrderID:   order.Payment.ProviderOrderID,
			ProviderPaymentID: paymentID,
			ProviderSignature: sig,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		after, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPending, after.Payment.Status)
		assert.Equal(t, int32(10), store.stockOf(variantA))
		assert.Equal(t, int32(0), store.stockOf(variantB))
	})

	t.Run("two orders racing for the last unit yield one success", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		variantID := uuid.New()
		store.setStock(variantID, 1)

		orderA := pendingOrder(store, item(variantID, 1, 12500))
		orderB := pendingOrder(store, item(variantID, 1, 12500))

		svc := newPaymentService(store, queue)
		confirm := func(order *domain.Order) error {
			paymentID := "pay_" + order.ID.String()[:8]
			_, err := svc.VerifyAndConfirm(ctx, service.VerifyPaymentParams{
				OrderID:           order.ID,
				ProviderOrderID:   order.Payment.ProviderOrderID,
				ProviderPaymentID: paymentID,
				ProviderSignature: gatewaySign(order.Payment.ProviderOrderID, paymentID),
			})
			return err
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, order := range []*domain.Order{orderA, orderB} {
			wg.Add(1)
			go func(i int, order *domain.Order) {
				defer wg.Done()
				errs[i] = confirm(order)
			}(i, order)
		}
		wg.Wait()

		var successes, shortfalls int
		for _, err := range errs {
			switch {
			case err == nil:
				successes++
			case domain.IsCode(err, domain.ECONFLICT):
				shortfalls++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, shortfalls)
		assert.Equal(t, int32(0), store.stockOf(variantID))
	})

	t.Run("unknown order surfaces not found", func(t *testing.T) {
		store := newMemOrderStore()
		svc := newPaymentService(store, &memQueue{})

		_, err := svc.VerifyAndConfirm(ctx, service.VerifyPaymentParams{OrderID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}
