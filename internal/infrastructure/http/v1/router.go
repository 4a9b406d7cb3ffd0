// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexa/internal/domain/documents/invoice"
	"nexa/internal/domain/documents/quote"
	"nexa/internal/domain/emailactivity"
	"nexa/internal/domain/events"
	"nexa/internal/infrastructure/http/v1/handlers"
	"nexa/internal/infrastructure/http/v1/middleware"
	"nexa/internal/infrastructure/pdf"
	"nexa/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	// Pool is the database connection pool (health checks only; data access
	// goes through the services)
	Pool *pgxpool.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Services
	InvoiceService *invoice.Service
	QuoteService   *quote.Service
	EmailService   *emailactivity.Service
	EventRepo      events.Repository

	// Renderer for PDF export; nil disables the endpoints
	Renderer *pdf.Renderer

	// Version reported by /health/info
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1 (authenticated)
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))

	base := handlers.NewBaseHandler()

	// --- INVOICES ---
	{
		handler := handlers.NewInvoiceHandler(base, cfg.InvoiceService, cfg.Renderer)
		g := api.Group("/invoices")
		g.POST("", handler.Create)
		g.GET("", handler.List)
		g.POST("/process-overdue", handler.ProcessOverdue)
		g.GET("/:id", handler.Get)
		g.PUT("/:id", handler.Update)
		g.DELETE("/:id", handler.Delete)
		g.POST("/:id/status", handler.ChangeStatus)
		g.POST("/:id/payments", handler.RecordPayment)
		g.GET("/:id/payments", handler.Payments)
		g.POST("/:id/duplicate", handler.Duplicate)
		g.GET("/:id/pdf", handler.PDF)
	}

	// --- QUOTES ---
	{
		handler := handlers.NewQuoteHandler(base, cfg.QuoteService, cfg.Renderer)
		g := api.Group("/quotes")
		g.POST("", handler.Create)
		g.GET("", handler.List)
		g.POST("/process-expired", handler.ProcessExpired)
		g.GET("/:id", handler.Get)
		g.PUT("/:id", handler.Update)
		g.DELETE("/:id", handler.Delete)
		g.POST("/:id/status", handler.ChangeStatus)
		g.POST("/:id/convert", handler.Convert)
		g.POST("/:id/duplicate", handler.Duplicate)
		g.GET("/:id/pdf", handler.PDF)
	}

	// --- EMAIL ACTIVITY ---
	{
		handler := handlers.NewEmailActivityHandler(base, cfg.EmailService)
		g := api.Group("/email-activity")
		g.POST("", handler.Record)
		g.GET("", handler.List)
		g.GET("/summary", handler.Summary)
		g.POST("/:id/status", handler.UpdateStatus)
	}

	// --- CALENDAR EVENTS ---
	{
		handler := handlers.NewEventHandler(base, cfg.EventRepo)
		api.GET("/events", handler.List)
	}

	return router
}
