// Package main is the entry point for the Nexa API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nexa/internal/core/id"
	"nexa/internal/domain"
	"nexa/internal/domain/auth"
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/domain/documents/quote"
	"nexa/internal/domain/emailactivity"
	"nexa/internal/domain/tax"
	v1 "nexa/internal/infrastructure/http/v1"
	pgnumbering "nexa/internal/infrastructure/numbering"
	"nexa/internal/infrastructure/pdf"
	"nexa/internal/infrastructure/storage/postgres"
	"nexa/internal/infrastructure/storage/postgres/document_repo"
	"nexa/pkg/logger"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting nexa server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	quoteRepo := document_repo.NewQuoteRepo(txManager)
	paymentRepo := document_repo.NewPaymentRepo(txManager)
	eventRepo := document_repo.NewEventRepo(txManager)
	emailRepo := document_repo.NewEmailActivityRepo(txManager)

	// --- Tax engine ---
	calc := tax.NewCalculator(tax.NewIVAEngine())

	// --- Numbering ---
	invoiceNumbers := pgnumbering.NewPostgresGenerator(txManager, "invoices")
	quoteNumbers := pgnumbering.NewPostgresGenerator(txManager, "quotes")

	// --- Services ---
	invoiceService := invoice.NewService(invoiceRepo, paymentRepo, eventRepo, calc, invoiceNumbers, txManager)
	quoteService := quote.NewService(quoteRepo, invoiceRepo, eventRepo, calc, quoteNumbers, txManager)
	emailService := emailactivity.NewService(emailRepo)

	registerAuditHooks(invoiceService, quoteService, auditService)

	// --- JWT ---
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- PDF renderer (optional) ---
	var renderer *pdf.Renderer
	if getEnv("PDF_ENABLED", "true") == "true" {
		renderer = pdf.NewRenderer(pdf.Config{
			RemoteURL: getEnv("CHROME_REMOTE_URL", ""),
			NoSandbox: getEnv("CHROME_NO_SANDBOX", "false") == "true",
		})
		defer renderer.Close()
		log.Info("pdf renderer initialized")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool.Unwrap(),
		Logger:         log,
		JWTValidator:   jwtService,
		InvoiceService: invoiceService,
		QuoteService:   quoteService,
		EmailService:   emailService,
		EventRepo:      eventRepo,
		Renderer:       renderer,
		Version:        version,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// registerAuditHooks records every document write in the audit log.
// Audit failures are logged, never propagated: losing an audit row must
// not fail the business operation.
func registerAuditHooks(
	invoiceService *invoice.Service,
	quoteService *quote.Service,
	audit *postgres.AuditService,
) {
	invoiceService.Hooks().On(domain.AfterCreate, func(ctx context.Context, doc *invoice.Invoice) error {
		logAudit(ctx, audit, "invoice", postgres.AuditActionCreate, doc.ID, map[string]any{"number": doc.Number, "status": doc.Status})
		return nil
	})
	invoiceService.Hooks().On(domain.AfterUpdate, func(ctx context.Context, doc *invoice.Invoice) error {
		logAudit(ctx, audit, "invoice", postgres.AuditActionUpdate, doc.ID, map[string]any{"number": doc.Number, "status": doc.Status, "version": doc.Version})
		return nil
	})
	invoiceService.Hooks().On(domain.AfterDelete, func(ctx context.Context, doc *invoice.Invoice) error {
		logAudit(ctx, audit, "invoice", postgres.AuditActionDelete, doc.ID, map[string]any{"number": doc.Number})
		return nil
	})

	quoteService.Hooks().On(domain.AfterCreate, func(ctx context.Context, doc *quote.Quote) error {
		logAudit(ctx, audit, "quote", postgres.AuditActionCreate, doc.ID, map[string]any{"number": doc.Number, "status": doc.Status})
		return nil
	})
	quoteService.Hooks().On(domain.AfterUpdate, func(ctx context.Context, doc *quote.Quote) error {
		logAudit(ctx, audit, "quote", postgres.AuditActionUpdate, doc.ID, map[string]any{"number": doc.Number, "status": doc.Status, "version": doc.Version})
		return nil
	})
	quoteService.Hooks().On(domain.AfterDelete, func(ctx context.Context, doc *quote.Quote) error {
		logAudit(ctx, audit, "quote", postgres.AuditActionDelete, doc.ID, map[string]any{"number": doc.Number})
		return nil
	})
}

func logAudit(ctx context.Context, audit *postgres.AuditService, entityType string, action postgres.AuditAction, entityID id.ID, changes map[string]any) {
	if err := audit.LogChange(ctx, entityType, entityID, action, changes); err != nil {
		logger.Warn(ctx, "audit log write failed",
			"entity_type", entityType,
			"action", action,
			"error", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
