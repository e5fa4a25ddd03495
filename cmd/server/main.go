package main

import (
	"context"
	"net/http"
	"time"

	"github.com/billmint/billmint/internal/api"
	v1 "github.com/billmint/billmint/internal/api/v1"
	"github.com/billmint/billmint/internal/config"
	"github.com/billmint/billmint/internal/logger"
	"github.com/billmint/billmint/internal/postgres"
	"github.com/billmint/billmint/internal/repository"
	"github.com/billmint/billmint/internal/service"
	"github.com/billmint/billmint/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// All timestamps are stored and served in UTC
	time.Local = time.UTC
}

func main() {
	validator.NewValidator()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			postgres.NewDB,
			func(db *postgres.DB) postgres.IClient { return db },
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			service.NewServiceParams,
			service.NewInvoiceService,
			service.NewPaymentService,
			v1.NewInvoiceHandler,
			v1.NewPaymentHandler,
			v1.NewHealthHandler,
			newHandlers,
			api.NewRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func newHandlers(
	invoiceHandler *v1.InvoiceHandler,
	paymentHandler *v1.PaymentHandler,
	healthHandler *v1.HealthHandler,
) api.Handlers {
	return api.Handlers{
		Invoice: invoiceHandler,
		Payment: paymentHandler,
		Health:  healthHandler,
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow("starting server", "address", cfg.Server.Address)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			db.Close()
			return nil
		},
	})
}
