// Package jobs defines the background job types the worker processes, with
// their JSON payloads and enqueue helpers.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job type constants
const (
	JobTypeOrderConfirmationEmail = "email:order_confirmation"
	JobTypeOrderStatusEmail       = "email:order_status"
	JobTypeAdminOrderAlert        = "email:admin_order_alert"
	JobTypeGenerateInvoice        = "invoice:generate"
	JobTypeLowStockScan           = "inventory:low_stock_scan"
)

// Job statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one queued unit of background work.
type Job struct {
	ID          int64
	JobType     string
	Payload     []byte
	Status      string
	Attempts    int32
	MaxAttempts int32
	LastError   string
	ScheduledAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Queue persists and claims background jobs.
type Queue interface {
	// Enqueue schedules a job for the given type and JSON payload.
	Enqueue(ctx context.Context, jobType string, payload []byte, scheduledAt time.Time) (int64, error)

	// ClaimNext atomically claims the oldest due pending job, or returns
	// (nil, nil) when the queue is empty.
	ClaimNext(ctx context.Context) (*Job, error)

	// Complete marks a claimed job done.
	Complete(ctx context.Context, jobID int64) error

	// Fail records a failed attempt. Jobs under their attempt budget are
	// rescheduled with backoff; exhausted jobs move to the failed state.
	Fail(ctx context.Context, jobID int64, jobErr error) error
}

// Payloads (JSON-serializable)

// OrderConfirmationEmailPayload triggers the post-payment confirmation email.
type OrderConfirmationEmailPayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderStatusEmailPayload triggers a fulfillment status update email.
type OrderStatusEmailPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
	Note    string    `json:"note,omitempty"`
}

// AdminOrderAlertPayload triggers the new-order alert to the shop admin.
type AdminOrderAlertPayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// GenerateInvoicePayload triggers PDF invoice generation for a paid order.
type GenerateInvoicePayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// LowStockScanPayload triggers a scan for variants below the stock threshold.
// Empty: the scan covers the whole catalog.
type LowStockScanPayload struct{}

func enqueue(ctx context.Context, q Queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", jobType, err)
	}
	if _, err := q.Enqueue(ctx, jobType, data, time.Now()); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", jobType, err)
	}
	return nil
}

// EnqueueOrderConfirmationEmail schedules the confirmation email for an order.
func EnqueueOrderConfirmationEmail(ctx context.Context, q Queue, orderID uuid.UUID) error {
	return enqueue(ctx, q, JobTypeOrderConfirmationEmail, OrderConfirmationEmailPayload{OrderID: orderID})
}

// EnqueueOrderStatusEmail schedules a status update email for an order.
func EnqueueOrderStatusEmail(ctx context.Context, q Queue, orderID uuid.UUID, status, note string) error {
	return enqueue(ctx, q, JobTypeOrderStatusEmail, OrderStatusEmailPayload{OrderID: orderID, Status: status, Note: note})
}

// EnqueueAdminOrderAlert schedules the new-order admin alert.
func EnqueueAdminOrderAlert(ctx context.Context, q Queue, orderID uuid.UUID) error {
	return enqueue(ctx, q, JobTypeAdminOrderAlert, AdminOrderAlertPayload{OrderID: orderID})
}

// EnqueueGenerateInvoice schedules PDF invoice generation for a paid order.
func EnqueueGenerateInvoice(ctx context.Context, q Queue, orderID uuid.UUID) error {
	return enqueue(ctx, q, JobTypeGenerateInvoice, GenerateInvoicePayload{OrderID: orderID})
}

// EnqueueLowStockScan schedules a catalog-wide low stock scan.
func EnqueueLowStockScan(ctx context.Context, q Queue) error {
	return enqueue(ctx, q, JobTypeLowStockScan, LowStockScanPayload{})
}
