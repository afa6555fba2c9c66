package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/billing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/pricing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/telemetry"
)

func catalogFixture() (*memCatalog, *domain.Product) {
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "Fresh Step Deodoriser",
		Category:  "spray",
		BasePrice: 12000,
		IsActive:  true,
	}
	product.Variants = []domain.Variant{
		{ID: uuid.New(), ProductID: product.ID, SKU: "FS-SPR-100-LAV", Type: "spray", Size: "100ml", Fragrance: "lavender", PriceAdjustment: 500, Stock: 25},
	}
	return newMemCatalog(product), product
}

func Test_OrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	newService := func(store *memOrderStore, queue *memQueue, provider billing.Provider) (*service.OrderService, *domain.Product) {
		catalog, product := catalogFixture()
		engine := pricing.NewEngine(catalog)
		svc := service.NewOrderService(store, newMemSettings(), engine, provider, queue,
			telemetry.NewTestMetrics(), discardLogger())
		return svc, product
	}

	t.Run("freezes pricing and registers gateway order", func(t *testing.T) {
		store := newMemOrderStore()
		queue := &memQueue{}
		provider := billing.NewMockProvider()
		svc, product := newService(store, queue, provider)

		result, err := svc.CreateOrder(ctx, service.CreateOrderParams{
			UserID:        uuid.New(),
			CustomerName:  "Priya",
			CustomerEmail: "priya@example.com",
			Lines: []pricing.LineRequest{
				{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 2},
			},
			Address: domain.Address{FullName: "Priya", City: "Pune", State: "MH", Pincode: "411001"},
		})
		require.NoError(t, err)

		order := result.Order
		assert.Equal(t, int64(25000), order.Pricing.Subtotal)
		assert.Equal(t, int64(4500), order.Pricing.Tax)
		assert.Equal(t, int64(4000), order.Pricing.DeliveryCharge)
		assert.Equal(t, int64(33500), order.Pricing.Total)
		assert.Equal(t, order.Pricing.Total,
			order.Pricing.Subtotal+order.Pricing.Tax+order.Pricing.DeliveryCharge-order.Pricing.Discount)

		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, domain.PaymentStatusPending, order.Payment.Status)
		assert.True(t, strings.HasPrefix(order.OrderNumber, "KDS"))
		assert.NotEmpty(t, result.ProviderOrderID)
		assert.Equal(t, "INR", result.Currency)

		// gateway charged the full total
		gw := provider.Orders[result.ProviderOrderID]
		require.NotNil(t, gw)
		assert.Equal(t, int64(33500), gw.AmountMinor)
		assert.Equal(t, order.OrderNumber, gw.Receipt)

		// persisted copy carries the provider order id
		stored, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, result.ProviderOrderID, stored.Payment.ProviderOrderID)
	})

	t.Run("pricing snapshot survives later settings changes", func(t *testing.T) {
		store := newMemOrderStore()
		settings := newMemSettings()
		catalog, product := catalogFixture()
		svc := service.NewOrderService(store, settings, pricing.NewEngine(catalog),
			billing.NewMockProvider(), &memQueue{}, telemetry.NewTestMetrics(), discardLogger())

		result, err := svc.CreateOrder(ctx, service.CreateOrderParams{
			UserID: uuid.New(),
			Lines: []pricing.LineRequest{
				{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 2},
			},
		})
		require.NoError(t, err)

		require.NoError(t, settings.Upsert(ctx, domain.SettingTaxRatePercent, 28))
		require.NoError(t, settings.Upsert(ctx, domain.SettingDeliveryCharge, 9000))

		// a fresh order prices against the new settings
		fresh, err := svc.CreateOrder(ctx, service.CreateOrderParams{
			UserID: uuid.New(),
			Lines: []pricing.LineRequest{
				{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 2},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7000), fresh.Order.Pricing.Tax)
		assert.Equal(t, int64(9000), fresh.Order.Pricing.DeliveryCharge)

		// the earlier order's stored breakdown is untouched
		stored, err := store.GetOrder(ctx, result.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(25000), stored.Pricing.Subtotal)
		assert.Equal(t, int64(4500), stored.Pricing.Tax)
		assert.Equal(t, float64(18), stored.Pricing.TaxRatePercent)
		assert.Equal(t, int64(4000), stored.Pricing.DeliveryCharge)
		assert.Equal(t, int64(33500), stored.Pricing.Total)
	})

	t.Run("creation does not decrement stock", func(t *testing.T) {
		store := newMemOrderStore()
		svc, product := newService(store, &memQueue{}, billing.NewMockProvider())

		_, err := svc.CreateOrder(ctx, service.CreateOrderParams{
			UserID: uuid.New(),
			Lines: []pricing.LineRequest{
				{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 2},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int32(25), product.Variants[0].Stock)
	})

	t.Run("rejects an empty order", func(t *testing.T) {
		svc, _ := newService(newMemOrderStore(), &memQueue{}, billing.NewMockProvider())

		_, err := svc.CreateOrder(ctx, service.CreateOrderParams{UserID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrEmptyOrder)
	})

	t.Run("rejects quantities over stock at quote time", func(t *testing.T) {
		svc, product := newService(newMemOrderStore(), &memQueue{}, billing.NewMockProvider())

		_, err := svc.CreateOrder(ctx, service.CreateOrderParams{
			UserID: uuid.New(),
			Lines: []pricing.LineRequest{
				{ProductID: product.ID, VariantID: product.Variants[0].ID, Quantity: 100},
			},
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	})
}

func Test_OrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	setup := func() (*service.OrderService, *memOrderStore, *memQueue, *domain.Order) {
		store := newMemOrderStore()
		queue := &memQueue{}
		catalog, _ := catalogFixture()
		svc := service.NewOrderService(store, newMemSettings(), pricing.NewEngine(catalog),
			billing.NewMockProvider(), queue, telemetry.NewTestMetrics(), discardLogger())

		variantID := uuid.New()
		store.setStock(variantID, 5)
		order := pendingOrder(store, item(variantID, 1, 12500))
		_, err := store.ConfirmPayment(ctx, domain.ConfirmPaymentParams{OrderID: order.ID, ProviderPaymentID: "pay_1"})
		if err != nil {
			panic(err)
		}
		return svc, store, queue, order
	}

	t.Run("walks the fulfillment chain and stamps delivery", func(t *testing.T) {
		svc, _, queue, order := setup()

		for _, status := range []domain.OrderStatus{
			domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered,
		} {
			updated, err := svc.UpdateStatus(ctx, order.ID, status, "")
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
		}

		final, err := svc.GetOrder(domain.WithUser(ctx, domain.User{ID: order.UserID}), order.ID)
		require.NoError(t, err)
		require.NotNil(t, final.DeliveredAt)
		// history: Pending, Confirmed, Processing, Shipped, Delivered
		assert.Len(t, final.History, 5)
		assert.Contains(t, queue.typesEnqueued(), "email:order_status")
	})

	t.Run("rejects skipping a state", func(t *testing.T) {
		svc, _, _, order := setup()

		_, err := svc.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("rejects leaving a terminal state", func(t *testing.T) {
		svc, _, _, order := setup()

		_, err := svc.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, "customer request")
		require.NoError(t, err)
		_, err = svc.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func Test_OrderService_Access(t *testing.T) {
	ctx := context.Background()

	store := newMemOrderStore()
	catalog, _ := catalogFixture()
	svc := service.NewOrderService(store, newMemSettings(), pricing.NewEngine(catalog),
		billing.NewMockProvider(), &memQueue{}, telemetry.NewTestMetrics(), discardLogger())

	variantID := uuid.New()
	store.setStock(variantID, 5)
	order := pendingOrder(store, item(variantID, 1, 12500))

	t.Run("owner can read their order", func(t *testing.T) {
		got, err := svc.GetOrder(domain.WithUser(ctx, domain.User{ID: order.UserID}), order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("another user cannot", func(t *testing.T) {
		_, err := svc.GetOrder(domain.WithUser(ctx, domain.User{ID: uuid.New()}), order.ID)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("admin can read any order", func(t *testing.T) {
		admin := domain.User{ID: uuid.New(), Role: "admin"}
		got, err := svc.GetOrder(domain.WithUser(ctx, admin), order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, order.ID)
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})
}
