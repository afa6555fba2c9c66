// Package worker runs the DB-backed background job loop that handles the
// best-effort side effects of order processing.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/email"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/invoice"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/jobs"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/telemetry"
)

// Config holds worker configuration.
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for new jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int

	// LowStockScanInterval is how often the low-stock scan is scheduled.
	// Zero disables periodic scans.
	LowStockScanInterval time.Duration
}

// Worker polls the job queue and dispatches by job type.
type Worker struct {
	config    Config
	queue     jobs.Queue
	orders    domain.OrderStore
	emails    *email.Service
	invoices  invoice.Generator
	analytics *service.AnalyticsService
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewWorker creates a background job worker.
func NewWorker(
	queue jobs.Queue,
	orders domain.OrderStore,
	emails *email.Service,
	invoices invoice.Generator,
	analytics *service.AnalyticsService,
	metrics *telemetry.Metrics,
	config Config,
	logger *slog.Logger,
) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}

	return &Worker{
		config:    config,
		queue:     queue,
		orders:    orders,
		emails:    emails,
		invoices:  invoices,
		analytics: analytics,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start runs the polling loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	var scanC <-chan time.Time
	if w.config.LowStockScanInterval > 0 {
		scanTicker := time.NewTicker(w.config.LowStockScanInterval)
		defer scanTicker.Stop()
		scanC = scanTicker.C
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()

		case <-scanC:
			if err := jobs.EnqueueLowStockScan(ctx, w.queue); err != nil {
				w.logger.Error("failed to schedule low stock scan", "error", err)
			}

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				go func() {
					defer func() { <-sem }()
					w.claimAndProcess(ctx)
				}()
			default:
				// At max concurrency, skip this poll
			}
		}
	}
}

// claimAndProcess claims and processes a single job.
func (w *Worker) claimAndProcess(ctx context.Context) {
	job, err := w.queue.ClaimNext(ctx)
	if err != nil {
		w.logger.Error("failed to claim job", "error", err)
		return
	}
	if job == nil {
		return
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Error("job failed",
			"job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts, "error", err)
		w.metrics.JobsProcessed.WithLabelValues(job.JobType, "failed").Inc()
		if failErr := w.queue.Fail(ctx, job.ID, err); failErr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "error", failErr)
		}
		return
	}

	w.metrics.JobsProcessed.WithLabelValues(job.JobType, "completed").Inc()
	if err := w.queue.Complete(ctx, job.ID); err != nil {
		w.logger.Error("failed to mark job complete", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) processJob(ctx context.Context, job *jobs.Job) error {
	switch job.JobType {
	case jobs.JobTypeGenerateInvoice:
		var payload jobs.GenerateInvoicePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.generateInvoice(ctx, payload.OrderID)

	case jobs.JobTypeOrderConfirmationEmail:
		var payload jobs.OrderConfirmationEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.sendConfirmationEmail(ctx, payload.OrderID)

	case jobs.JobTypeOrderStatusEmail:
		var payload jobs.OrderStatusEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.sendStatusEmail(ctx, payload)

	case jobs.JobTypeAdminOrderAlert:
		var payload jobs.AdminOrderAlertPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.sendAdminOrderAlert(ctx, payload.OrderID)

	case jobs.JobTypeLowStockScan:
		return w.runLowStockScan(ctx)

	default:
		return fmt.Errorf("unknown job type %q", job.JobType)
	}
}

func (w *Worker) generateInvoice(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	result, err := w.invoices.Generate(ctx, order)
	if err != nil {
		return err
	}
	return w.orders.SetInvoiceURL(ctx, orderID, result.URL)
}

func (w *Worker) sendConfirmationEmail(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	data := email.OrderConfirmationData{
		CustomerName:      order.CustomerName,
		OrderNumber:       order.OrderNumber,
		Subtotal:          email.FormatMinor(order.Pricing.Subtotal),
		Tax:               email.FormatMinor(order.Pricing.Tax),
		DeliveryCharge:    email.FormatMinor(order.Pricing.DeliveryCharge),
		Total:             email.FormatMinor(order.Pricing.Total),
		EstimatedDelivery: order.EstimatedDelivery.Format("02 Jan 2006"),
	}
	if order.Pricing.Discount > 0 {
		data.Discount = email.FormatMinor(order.Pricing.Discount)
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, email.OrderLineData{
			ProductName: item.ProductName,
			Variant:     item.VariantDescription,
			Quantity:    item.Quantity,
			UnitPrice:   email.FormatMinor(item.UnitPrice),
			LineTotal:   email.FormatMinor(item.LineTotal),
		})
	}

	// The invoice is attached when its job already ran; otherwise the email
	// goes out without it and the invoice stays reachable by URL.
	var pdf []byte
	if order.InvoiceURL != "" {
		if result, err := w.invoices.Generate(ctx, order); err == nil {
			pdf = result.PDF
		}
	}

	return w.emails.SendOrderConfirmation(ctx, order.CustomerEmail, data, pdf)
}

func (w *Worker) sendStatusEmail(ctx context.Context, payload jobs.OrderStatusEmailPayload) error {
	order, err := w.orders.GetOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	return w.emails.SendStatusUpdate(ctx, order.CustomerEmail, email.StatusUpdateData{
		CustomerName: order.CustomerName,
		OrderNumber:  order.OrderNumber,
		Status:       payload.Status,
		Note:         payload.Note,
	})
}

func (w *Worker) sendAdminOrderAlert(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	lines := []string{
		fmt.Sprintf("New order %s from %s <%s>", order.OrderNumber, order.CustomerName, order.CustomerEmail),
		fmt.Sprintf("Total: %s", email.FormatMinor(order.Pricing.Total)),
	}
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("- %s (%s) x%d", item.ProductName, item.SKU, item.Quantity))
	}

	return w.emails.SendAdminAlert(ctx, email.AdminAlertData{
		Subject: fmt.Sprintf("New order %s", order.OrderNumber),
		Lines:   lines,
	})
}

func (w *Worker) runLowStockScan(ctx context.Context) error {
	items, err := w.analytics.LowStock(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "The following items are running low on stock:")
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s, SKU %s): %d units left (threshold %d)",
			it.ProductName, it.Variant, it.SKU, it.Stock, it.Threshold))
	}

	return w.emails.SendAdminAlert(ctx, email.AdminAlertData{
		Subject: "Low Stock Alert",
		Lines:   lines,
	})
}
