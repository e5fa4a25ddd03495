package api

import (
	v1 "github.com/billmint/billmint/internal/api/v1"
	"github.com/billmint/billmint/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Invoice *v1.InvoiceHandler
	Payment *v1.PaymentHandler
	Health  *v1.HealthHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Invoice routes
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/stats", handlers.Invoice.GetInvoiceStats)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.POST("/:id/issue", handlers.Invoice.IssueInvoice)
		invoices.POST("/:id/void", handlers.Invoice.VoidInvoice)
		invoices.GET("/:id/payments", handlers.Invoice.ListInvoicePayments)
	}

	// Payment routes
	payments := router.Group("/payments")
	{
		payments.POST("", handlers.Payment.RecordPayment)
		payments.GET("", handlers.Payment.ListPayments)
	}
}
