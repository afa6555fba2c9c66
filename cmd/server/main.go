package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ahir-gaurav/Ecommerce-backend/internal"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/auth"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/billing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/email"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/handler"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/invoice"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/middleware"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/postgres"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/pricing"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/router"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/telemetry"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for the application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Stores
	store := postgres.NewStore(pool)
	catalogStore := postgres.NewCatalogStore(store)
	orderStore := postgres.NewOrderStore(store)
	settingsStore := postgres.NewSettingsStore(store)
	jobQueue := postgres.NewJobQueue(store)

	// Metrics
	metrics := telemetry.NewMetrics("kicks", nil)
	httpMetrics := middleware.NewHTTPMetrics("kicks", nil)

	// Payment gateway
	logger.Info("Initializing Razorpay provider...")
	provider := billing.NewRazorpayProvider(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)

	// Email
	sender := email.NewSMTPSender(&email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)
	emailService, err := email.NewService(sender, cfg.Email.From, cfg.Email.FromName, cfg.Email.AdminEmail)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Invoices
	invoiceGen, err := invoice.NewPDFGenerator(cfg.Invoice.Dir, cfg.Invoice.URLBase,
		"Kicks Don't Stink", "Pune, Maharashtra, India")
	if err != nil {
		return fmt.Errorf("failed to initialize invoice generator: %w", err)
	}

	// Services
	engine := pricing.NewEngine(catalogStore)
	orderService := service.NewOrderService(orderStore, settingsStore, engine, provider, jobQueue, metrics, logger)
	paymentService := service.NewPaymentService(orderStore, provider, jobQueue, metrics, logger)
	analyticsService := service.NewAnalyticsService(catalogStore, settingsStore)

	// Auth
	verifier := auth.NewVerifier(cfg.AuthSecret)

	// Background worker
	w := worker.NewWorker(jobQueue, orderStore, emailService, invoiceGen, analyticsService, metrics,
		worker.Config{
			PollInterval:         time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second,
			MaxConcurrency:       cfg.Worker.MaxConcurrency,
			LowStockScanInterval: time.Duration(cfg.Worker.LowStockScanHours) * time.Hour,
		}, logger)
	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("worker stopped", "error", err)
		}
	}()

	// Handlers
	productHandler := handler.NewProductHandler(catalogStore)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	adminHandler := handler.NewAdminHandler(settingsStore, orderService, analyticsService)

	// Routes
	r := router.New(
		router.Recovery(logger),
		router.RequestID,
		router.Logger(logger),
		router.CORS(strings.Split(cfg.CORSOrigins, ",")),
		httpMetrics.Middleware,
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle(http.MethodGet, "/metrics", httpMetrics.Handler())
	r.Static(cfg.Invoice.URLBase, cfg.Invoice.Dir)

	// Public catalog
	r.Get("/api/products", productHandler.List)
	r.Get("/api/products/{id}", productHandler.Get)

	// Customer routes
	authed := r.Group(middleware.RequireUser(verifier))
	authed.Post("/api/orders", orderHandler.Create)
	authed.Get("/api/orders", orderHandler.List)
	authed.Get("/api/orders/{id}", orderHandler.Get)
	authed.Post("/api/payments/verify", paymentHandler.Verify)

	// Admin routes
	admin := r.Group(middleware.RequireAdmin(verifier))
	admin.Post("/api/admin/products", productHandler.Create)
	admin.Patch("/api/admin/products/{id}", productHandler.Update)
	admin.Post("/api/admin/products/{id}/variants", productHandler.CreateVariant)
	admin.Post("/api/admin/variants/{id}/restock", productHandler.Restock)
	admin.Get("/api/admin/settings", adminHandler.ListSettings)
	admin.Put("/api/admin/settings", adminHandler.UpsertSetting)
	admin.Patch("/api/admin/orders/{id}/status", adminHandler.UpdateOrderStatus)
	admin.Get("/api/admin/inventory/report", adminHandler.InventoryReport)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	if err := run(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
