package testutil

import (
	"context"

	"github.com/billmint/billmint/internal/config"
	"github.com/billmint/billmint/internal/logger"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the in-memory stores for a service test run
type Stores struct {
	InvoiceStore *InMemoryInvoiceStore
	PaymentStore *InMemoryPaymentStore
}

// BaseServiceSuite provides common setup for service layer tests
type BaseServiceSuite struct {
	suite.Suite
	ctx    context.Context
	cfg    *config.Configuration
	logger *logger.Logger
	db     *MockPostgresClient
	stores Stores
}

// SetupTestEnvironment initializes fresh stores for a test
func (s *BaseServiceSuite) SetupTestEnvironment() {
	s.ctx = context.Background()
	s.cfg = config.GetDefaultConfig()
	s.logger = logger.GetLogger()
	s.db = NewMockPostgresClient()

	s.stores = Stores{
		InvoiceStore: NewInMemoryInvoiceStore(),
	}
	s.stores.PaymentStore = NewInMemoryPaymentStore(s.stores.InvoiceStore)
}

// ClearStores resets all in-memory stores
func (s *BaseServiceSuite) ClearStores() {
	s.stores.InvoiceStore.Clear()
	s.stores.PaymentStore.Clear()
}

func (s *BaseServiceSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceSuite) GetConfig() *config.Configuration {
	return s.cfg
}

func (s *BaseServiceSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceSuite) GetStores() Stores {
	return s.stores
}
