package service

import (
	"github.com/billmint/billmint/internal/config"
	"github.com/billmint/billmint/internal/domain/invoice"
	"github.com/billmint/billmint/internal/domain/payment"
	"github.com/billmint/billmint/internal/logger"
	"github.com/billmint/billmint/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	InvoiceRepo invoice.Repository
	PaymentRepo payment.Repository
}

// NewServiceParams builds the common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		DB:          db,
		InvoiceRepo: invoiceRepo,
		PaymentRepo: paymentRepo,
	}
}
