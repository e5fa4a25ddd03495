package repository

import (
	"github.com/billmint/billmint/internal/domain/invoice"
	"github.com/billmint/billmint/internal/domain/payment"
	"github.com/billmint/billmint/internal/logger"
	"github.com/billmint/billmint/internal/postgres"
	postgresRepo "github.com/billmint/billmint/internal/repository/postgres"
)

func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPaymentRepository(db postgres.IClient, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}
