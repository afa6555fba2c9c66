package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	*Store
}

var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a PostgreSQL-backed order store.
func NewOrderStore(store *Store) *OrderStore {
	return &OrderStore{Store: store}
}

const orderColumns = `id, order_number, user_id, customer_name, customer_email,
	subtotal, tax, tax_rate_percent, delivery_charge, discount, total,
	ship_full_name, ship_phone, ship_address_line1, ship_address_line2, ship_city, ship_state, ship_pincode,
	provider_order_id, provider_payment_id, provider_signature, payment_method, payment_status,
	status, estimated_delivery, delivered_at, invoice_url, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerName, &o.CustomerEmail,
		&o.Pricing.Subtotal, &o.Pricing.Tax, &o.Pricing.TaxRatePercent,
		&o.Pricing.DeliveryCharge, &o.Pricing.Discount, &o.Pricing.Total,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Phone,
		&o.ShippingAddress.AddressLine1, &o.ShippingAddress.AddressLine2,
		&o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.Pincode,
		&o.Payment.ProviderOrderID, &o.Payment.ProviderPaymentID,
		&o.Payment.ProviderSignature, &o.Payment.Method, &o.Payment.Status,
		&o.Status, &o.EstimatedDelivery, &o.DeliveredAt, &o.InvoiceURL,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder persists an order aggregate with its items and the initial
// history entry in one transaction.
func (s *OrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	const op = "order.create"

	if len(order.Items) == 0 {
		return domain.ErrEmptyOrder
	}

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO orders (
				id, order_number, user_id, customer_name, customer_email,
				subtotal, tax, tax_rate_percent, delivery_charge, discount, total,
				ship_full_name, ship_phone, ship_address_line1, ship_address_line2, ship_city, ship_state, ship_pincode,
				provider_order_id, payment_method, payment_status, status, estimated_delivery
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9, $10, $11,
				$12, $13, $14, $15, $16, $17, $18,
				$19, $20, $21, $22, $23
			) RETURNING created_at, updated_at`,
			order.ID, order.OrderNumber, order.UserID, order.CustomerName, order.CustomerEmail,
			order.Pricing.Subtotal, order.Pricing.Tax, order.Pricing.TaxRatePercent,
			order.Pricing.DeliveryCharge, order.Pricing.Discount, order.Pricing.Total,
			order.ShippingAddress.FullName, order.ShippingAddress.Phone,
			order.ShippingAddress.AddressLine1, order.ShippingAddress.AddressLine2,
			order.ShippingAddress.City, order.ShippingAddress.State, order.ShippingAddress.Pincode,
			order.Payment.ProviderOrderID, order.Payment.Method, order.Payment.Status,
			order.Status, order.EstimatedDelivery,
		)
		if err := row.Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO order_items (
					id, order_id, product_id, variant_id, product_name, sku,
					variant_description, quantity, unit_price, line_total
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				item.ID, order.ID, item.ProductID, item.VariantID, item.ProductName,
				item.SKU, item.VariantDescription, item.Quantity, item.UnitPrice, item.LineTotal)
			if err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO order_status_history (order_id, status, note)
			 VALUES ($1, $2, $3)`,
			order.ID, order.Status, "Order placed")
		return err
	})
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return domain.Conflict(op, "order number already exists")
		}
		return domain.Internal(err, op, "failed to create order")
	}
	return nil
}

// GetOrder retrieves a full order aggregate by ID.
func (s *OrderStore) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
}

// GetOrderForUser retrieves an order only when it belongs to the user.
func (s *OrderStore) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	return s.getOrder(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
}

func (s *OrderStore) getOrder(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	const op = "order.get"

	o, err := scanOrder(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapQueryErr(err, op, domain.ErrOrderNotFound)
	}
	if err := s.loadOrderChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) loadOrderChildren(ctx context.Context, o *domain.Order) error {
	const op = "order.load_children"

	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, variant_id, product_name, sku, variant_description,
		        quantity, unit_price, line_total
		   FROM order_items WHERE order_id = $1 ORDER BY sku`, o.ID)
	if err != nil {
		return domain.Internal(err, op, "failed to load order items")
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.ProductName,
			&it.SKU, &it.VariantDescription, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return domain.Internal(err, op, "failed to scan order item")
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Internal(err, op, "failed to iterate order items")
	}

	hrows, err := s.pool.Query(ctx,
		`SELECT status, note, created_at
		   FROM order_status_history WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return domain.Internal(err, op, "failed to load status history")
	}
	defer hrows.Close()
	for hrows.Next() {
		var entry domain.StatusEntry
		if err := hrows.Scan(&entry.Status, &entry.Note, &entry.Timestamp); err != nil {
			return domain.Internal(err, op, "failed to scan status history")
		}
		o.History = append(o.History, entry)
	}
	if err := hrows.Err(); err != nil {
		return domain.Internal(err, op, "failed to iterate status history")
	}

	return nil
}

// ListOrdersForUser returns the user's orders, newest first, without child
// rows loaded.
func (s *OrderStore) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListOrders returns every order, newest first, without child rows loaded.
func (s *OrderStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *OrderStore) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	const op = "order.list"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate orders")
	}
	return orders, nil
}

// SetProviderOrderID records the payment provider's order ID.
func (s *OrderStore) SetProviderOrderID(ctx context.Context, orderID uuid.UUID, providerOrderID string) error {
	const op = "order.set_provider_order_id"

	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET provider_order_id = $2, updated_at = now() WHERE id = $1`,
		orderID, providerOrderID)
	if err != nil {
		return domain.Internal(err, op, "failed to set provider order id")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// ConfirmPayment atomically marks the payment completed, moves the order to
// Confirmed, and applies every per-item stock decrement. Each decrement is
// conditional on sufficient stock; any shortfall rolls the whole transaction
// back with ErrInsufficientStock. Replaying a confirmation against an order
// whose payment is already Completed is a no-op.
func (s *OrderStore) ConfirmPayment(ctx context.Context, params domain.ConfirmPaymentParams) (*domain.Order, error) {
	const op = "order.confirm_payment"

	var confirmed *domain.Order
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		// Lock the order row to serialize concurrent confirmations.
		var paymentStatus domain.PaymentStatus
		var orderStatus domain.OrderStatus
		err := tx.QueryRow(ctx,
			`SELECT payment_status, status FROM orders WHERE id = $1 FOR UPDATE`,
			params.OrderID).Scan(&paymentStatus, &orderStatus)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrOrderNotFound
			}
			return err
		}

		// Idempotent replay: already confirmed, change nothing.
		if paymentStatus == domain.PaymentStatusCompleted {
			return nil
		}
		if !orderStatus.CanTransitionTo(domain.OrderStatusConfirmed) {
			return domain.ErrInvalidTransition
		}

		rows, err := tx.Query(ctx,
			`SELECT variant_id, quantity FROM order_items WHERE order_id = $1`, params.OrderID)
		if err != nil {
			return err
		}
		type decrement struct {
			variantID uuid.UUID
			quantity  int32
		}
		var decs []decrement
		for rows.Next() {
			var d decrement
			if err := rows.Scan(&d.variantID, &d.quantity); err != nil {
				rows.Close()
				return err
			}
			decs = append(decs, d)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(decs) == 0 {
			return domain.ErrEmptyOrder
		}

		// Conditional decrement per variant. Zero rows affected means the
		// stock precondition failed and the whole confirmation rolls back.
		for _, d := range decs {
			tag, err := tx.Exec(ctx,
				`UPDATE variants
				    SET stock = stock - $2, sales_count = sales_count + $2, updated_at = now()
				  WHERE id = $1 AND stock >= $2`,
				d.variantID, d.quantity)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var exists bool
				if err := tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM variants WHERE id = $1)`, d.variantID).Scan(&exists); err != nil {
					return err
				}
				if !exists {
					return domain.ErrVariantNotFound
				}
				return domain.ErrInsufficientStock
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders
			    SET provider_payment_id = $2,
			        provider_signature = $3,
			        payment_method = $4,
			        payment_status = $5,
			        status = $6,
			        updated_at = now()
			  WHERE id = $1`,
			params.OrderID, params.ProviderPaymentID, params.ProviderSignature,
			params.Method, domain.PaymentStatusCompleted, domain.OrderStatusConfirmed)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_status_history (order_id, status, note)
			 VALUES ($1, $2, $3)`,
			params.OrderID, domain.OrderStatusConfirmed, "Payment successful")
		return err
	})
	if err != nil {
		if isSerializationFailure(err) {
			return nil, domain.ErrConcurrencyConflict
		}
		if domain.ErrorCode(err) != domain.EINTERNAL && domain.ErrorCode(err) != "" {
			return nil, err
		}
		return nil, domain.Internal(err, op, "failed to confirm payment")
	}

	confirmed, err = s.GetOrder(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// UpdateStatus applies an admin-driven fulfillment transition.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, note string) (*domain.Order, error) {
	const op = "order.update_status"

	if !status.Valid() {
		return nil, domain.Invalid(op, "unknown order status")
	}

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var current domain.OrderStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrOrderNotFound
			}
			return err
		}
		if !current.CanTransitionTo(status) {
			return domain.ErrInvalidTransition
		}

		var deliveredAt *time.Time
		if status == domain.OrderStatusDelivered {
			now := time.Now()
			deliveredAt = &now
		}
		_, err = tx.Exec(ctx,
			`UPDATE orders
			    SET status = $2,
			        delivered_at = COALESCE($3, delivered_at),
			        updated_at = now()
			  WHERE id = $1`,
			orderID, status, deliveredAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_status_history (order_id, status, note)
			 VALUES ($1, $2, $3)`, orderID, status, note)
		return err
	})
	if err != nil {
		if domain.ErrorCode(err) != domain.EINTERNAL && domain.ErrorCode(err) != "" {
			return nil, err
		}
		return nil, domain.Internal(err, op, "failed to update order status")
	}

	return s.GetOrder(ctx, orderID)
}

// SetInvoiceURL records the generated invoice artifact location.
func (s *OrderStore) SetInvoiceURL(ctx context.Context, orderID uuid.UUID, url string) error {
	const op = "order.set_invoice_url"

	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET invoice_url = $2, updated_at = now() WHERE id = $1`,
		orderID, url)
	if err != nil {
		return domain.Internal(err, op, "failed to set invoice url")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
