package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/jobs"
)

// memOrderStore is an in-memory domain.OrderStore with the same atomicity
// guarantees the database store provides, guarded by a single mutex.
type memOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	stock  map[uuid.UUID]int32
	sales  map[uuid.UUID]int64
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		orders: make(map[uuid.UUID]*domain.Order),
		stock:  make(map[uuid.UUID]int32),
		sales:  make(map[uuid.UUID]int64),
	}
}

func (m *memOrderStore) setStock(variantID uuid.UUID, qty int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[variantID] = qty
}

func (m *memOrderStore) stockOf(variantID uuid.UUID) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[variantID]
}

func (m *memOrderStore) salesOf(variantID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sales[variantID]
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	cp.History = append([]domain.StatusEntry(nil), o.History...)
	return &cp
}

func (m *memOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(order.Items) == 0 {
		return domain.ErrEmptyOrder
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.History = append(order.History, domain.StatusEntry{
		Status: order.Status, Timestamp: now, Note: "Order placed",
	})
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memOrderStore) GetOrder(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *memOrderStore) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	o, err := m.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (m *memOrderStore) ListOrdersForUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (m *memOrderStore) ListOrders(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		out = append(out, *copyOrder(o))
	}
	return out, nil
}

func (m *memOrderStore) SetProviderOrderID(_ context.Context, orderID uuid.UUID, providerOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Payment.ProviderOrderID = providerOrderID
	return nil
}

func (m *memOrderStore) ConfirmPayment(_ context.Context, params domain.ConfirmPaymentParams) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[params.OrderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Payment.Status == domain.PaymentStatusCompleted {
		return copyOrder(o), nil
	}
	if !o.Status.CanTransitionTo(domain.OrderStatusConfirmed) {
		return nil, domain.ErrInvalidTransition
	}

	// All decrements are checked before any is applied.
	for _, item := range o.Items {
		if m.stock[item.VariantID] < item.Quantity {
			return nil, domain.ErrInsufficientStock
		}
	}
	for _, item := range o.Items {
		m.stock[item.VariantID] -= item.Quantity
		m.sales[item.VariantID] += int64(item.Quantity)
	}

	o.Payment.ProviderPaymentID = params.ProviderPaymentID
	o.Payment.ProviderSignature = params.ProviderSignature
	o.Payment.Method = params.Method
	o.Payment.Status = domain.PaymentStatusCompleted
	o.Status = domain.OrderStatusConfirmed
	o.History = append(o.History, domain.StatusEntry{
		Status: domain.OrderStatusConfirmed, Timestamp: time.Now(), Note: "Payment successful",
	})
	return copyOrder(o), nil
}

func (m *memOrderStore) UpdateStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus, note string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = status
	if status == domain.OrderStatusDelivered {
		now := time.Now()
		o.DeliveredAt = &now
	}
	o.History = append(o.History, domain.StatusEntry{Status: status, Timestamp: time.Now(), Note: note})
	return copyOrder(o), nil
}

func (m *memOrderStore) SetInvoiceURL(_ context.Context, orderID uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.InvoiceURL = url
	return nil
}

var _ domain.OrderStore = (*memOrderStore)(nil)

// memQueue is an in-memory jobs.Queue recording enqueued jobs.
type memQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (q *memQueue) Enqueue(_ context.Context, jobType string, payload []byte, scheduledAt time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, jobs.Job{
		ID: int64(len(q.jobs) + 1), JobType: jobType, Payload: payload,
		Status: jobs.StatusPending, ScheduledAt: scheduledAt,
	})
	return int64(len(q.jobs)), nil
}

func (q *memQueue) ClaimNext(_ context.Context) (*jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.jobs {
		if q.jobs[i].Status == jobs.StatusPending {
			q.jobs[i].Status = jobs.StatusRunning
			job := q.jobs[i]
			return &job, nil
		}
	}
	return nil, nil
}

func (q *memQueue) Complete(_ context.Context, jobID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[jobID-1].Status = jobs.StatusCompleted
	return nil
}

func (q *memQueue) Fail(_ context.Context, jobID int64, jobErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[jobID-1].Status = jobs.StatusFailed
	q.jobs[jobID-1].LastError = jobErr.Error()
	return nil
}

func (q *memQueue) typesEnqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for _, j := range q.jobs {
		out = append(out, j.JobType)
	}
	return out
}

var _ jobs.Queue = (*memQueue)(nil)

// memSettings is a fixed domain.SettingsService.
type memSettings struct {
	snapshot domain.PricingSnapshot
	values   map[string]float64
}

func newMemSettings() *memSettings {
	return &memSettings{
		snapshot: domain.PricingSnapshot{TaxRatePercent: 18, DeliveryCharge: 4000, LowStockThreshold: 10},
		values:   make(map[string]float64),
	}
}

func (s *memSettings) Snapshot(context.Context) (*domain.PricingSnapshot, error) {
	snap := s.snapshot
	return &snap, nil
}

func (s *memSettings) List(context.Context) ([]domain.Setting, error) {
	var out []domain.Setting
	for k, v := range s.values {
		out = append(out, domain.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (s *memSettings) Upsert(_ context.Context, key string, value float64) error {
	found := false
	for _, k := range domain.KnownSettingKeys {
		if k == key {
			found = true
		}
	}
	if !found {
		return domain.ErrUnknownSettingKey
	}
	s.values[key] = value
	switch key {
	case domain.SettingTaxRatePercent:
		s.snapshot.TaxRatePercent = value
	case domain.SettingDeliveryCharge:
		s.snapshot.DeliveryCharge = int64(value)
	case domain.SettingLowStockThreshold:
		s.snapshot.LowStockThreshold = int32(value)
	}
	return nil
}

var _ domain.SettingsService = (*memSettings)(nil)

// memCatalog implements the catalog reads the services need.
type memCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMemCatalog(products ...*domain.Product) *memCatalog {
	c := &memCatalog{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Product
	for _, p := range c.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *memCatalog) GetProduct(_ context.Context, productID uuid.UUID) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (c *memCatalog) ResolveVariant(_ context.Context, productID, variantID uuid.UUID) (*domain.Product, *domain.Variant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok || !p.IsActive {
		return nil, nil, domain.ErrProductNotFound
	}
	v := p.Variant(variantID)
	if v == nil {
		return nil, nil, domain.ErrVariantNotFound
	}
	return p, v, nil
}

func (c *memCatalog) CreateProduct(_ context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &domain.Product{
		ID: uuid.New(), Name: params.Name, Description: params.Description,
		Category: params.Category, BasePrice: params.BasePrice, IsActive: params.IsActive,
	}
	c.products[p.ID] = p
	return p, nil
}

func (c *memCatalog) UpdateProduct(_ context.Context, productID uuid.UUID, params domain.UpdateProductParams) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Category != nil {
		p.Category = *params.Category
	}
	if params.BasePrice != nil {
		p.BasePrice = *params.BasePrice
	}
	if params.IsActive != nil {
		p.IsActive = *params.IsActive
	}
	return p, nil
}

func (c *memCatalog) CreateVariant(_ context.Context, params domain.CreateVariantParams) (*domain.Variant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[params.ProductID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	v := domain.Variant{
		ID: uuid.New(), ProductID: p.ID, SKU: params.SKU, Type: params.Type,
		Size: params.Size, Fragrance: params.Fragrance,
		PriceAdjustment: params.PriceAdjustment, Stock: params.Stock,
	}
	p.Variants = append(p.Variants, v)
	return &v, nil
}

func (c *memCatalog) RestockVariant(_ context.Context, variantID uuid.UUID, quantity int32) (*domain.Variant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if v := p.Variant(variantID); v != nil {
			v.Stock += quantity
			now := time.Now()
			v.LastRestocked = &now
			return v, nil
		}
	}
	return nil, domain.ErrVariantNotFound
}

func (c *memCatalog) ListVariants(context.Context) ([]domain.VariantWithProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.VariantWithProduct
	for _, p := range c.products {
		if !p.IsActive {
			continue
		}
		for _, v := range p.Variants {
			out = append(out, domain.VariantWithProduct{Variant: v, ProductName: p.Name, BasePrice: p.BasePrice})
		}
	}
	return out, nil
}

var _ domain.CatalogService = (*memCatalog)(nil)
