package service

import (
	"testing"

	"github.com/billmint/billmint/internal/api/dto"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/testutil"
	"github.com/billmint/billmint/internal/types"
	"github.com/billmint/billmint/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceSuite
	service        PaymentService
	invoiceService InvoiceService
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	validator.NewValidator()
	s.SetupTestEnvironment()

	stores := s.GetStores()
	params := ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		InvoiceRepo: stores.InvoiceStore,
		PaymentRepo: stores.PaymentStore,
	}
	s.service = NewPaymentService(params)
	s.invoiceService = NewInvoiceService(params)
}

// createIssuedInvoice sets up an issued invoice totaling 59000 paise
// (500.00 subtotal + 18% tax).
func (s *PaymentServiceSuite) createIssuedInvoice() *dto.InvoiceResponse {
	created, err := s.invoiceService.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerName: "Acme Traders",
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500)},
		},
	})
	s.Require().NoError(err)

	issued, err := s.invoiceService.IssueInvoice(s.GetContext(), created.ID)
	s.Require().NoError(err)
	return issued
}

func (s *PaymentServiceSuite) TestRecordFullPayment() {
	inv := s.createIssuedInvoice()

	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(590),
		PaymentMethod: types.PaymentMethodBankTransfer,
	})
	s.NoError(err)
	s.Equal(int64(59000), resp.Amount)
	s.False(resp.Duplicate)

	updated, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, updated.InvoiceStatus)
	s.Equal(int64(59000), updated.AmountPaid)
	s.Equal(int64(0), updated.AmountDue)
	s.Equal(inv.Version+1, updated.Version)
}

func (s *PaymentServiceSuite) TestRecordPartialPayment() {
	inv := s.createIssuedInvoice()

	_, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(200),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.NoError(err)

	updated, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, updated.InvoiceStatus)
	s.Equal(int64(20000), updated.AmountPaid)
	s.Equal(int64(39000), updated.AmountDue)
}

func (s *PaymentServiceSuite) TestPartialThenSettlingPayment() {
	inv := s.createIssuedInvoice()

	_, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(200),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.NoError(err)

	_, err = s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(390),
		PaymentMethod: types.PaymentMethodUPI,
	})
	s.NoError(err)

	updated, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, updated.InvoiceStatus)
	s.Equal(int64(0), updated.AmountDue)
	// create + issue + two payments
	s.Equal(4, updated.Version)
}

func (s *PaymentServiceSuite) TestRecordPaymentOnDraft() {
	created, err := s.invoiceService.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerName: "Acme Traders",
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500)},
		},
	})
	s.NoError(err)

	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     created.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Nil(resp)
}

func (s *PaymentServiceSuite) TestRecordPaymentOnVoided() {
	created, err := s.invoiceService.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerName: "Acme Traders",
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500)},
		},
	})
	s.NoError(err)
	_, err = s.invoiceService.VoidInvoice(s.GetContext(), created.ID, "cancelled")
	s.NoError(err)

	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     created.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Nil(resp)
}

func (s *PaymentServiceSuite) TestRecordPaymentOnPaid() {
	inv := s.createIssuedInvoice()

	_, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(590),
		PaymentMethod: types.PaymentMethodCard,
	})
	s.NoError(err)

	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(1),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Nil(resp)
}

func (s *PaymentServiceSuite) TestOverpaymentRejected() {
	inv := s.createIssuedInvoice()

	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.RequireFromString("590.01"),
		PaymentMethod: types.PaymentMethodUPI,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Nil(resp)

	// neither the invoice nor the payment ledger moved
	updated, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, updated.InvoiceStatus)
	s.Equal(int64(0), updated.AmountPaid)
	s.Equal(inv.Version, updated.Version)

	payments, err := s.service.ListPaymentsByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(0, payments.Total)
}

func (s *PaymentServiceSuite) TestExactAmountDueAccepted() {
	inv := s.createIssuedInvoice()

	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        types.DecimalFromMinor(inv.AmountDue),
		PaymentMethod: types.PaymentMethodCheque,
	})
	s.NoError(err)
	s.Equal(inv.AmountDue, resp.Amount)
}

func (s *PaymentServiceSuite) TestRecordPaymentValidation() {
	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     "inv_123",
		Amount:        decimal.NewFromInt(-5),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Nil(resp)

	resp, err = s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     "inv_123",
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethod("BARTER"),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Nil(resp)
}

func (s *PaymentServiceSuite) TestRecordPaymentInvoiceNotFound() {
	resp, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     "inv_missing",
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
	s.Nil(resp)
}

func (s *PaymentServiceSuite) TestIdempotentReplay() {
	inv := s.createIssuedInvoice()

	req := dto.RecordPaymentRequest{
		InvoiceID:      inv.ID,
		Amount:         decimal.NewFromInt(200),
		PaymentMethod:  types.PaymentMethodUPI,
		IdempotencyKey: lo.ToPtr("pay-req-42"),
	}

	first, err := s.service.RecordPayment(s.GetContext(), req)
	s.NoError(err)
	s.False(first.Duplicate)

	second, err := s.service.RecordPayment(s.GetContext(), req)
	s.NoError(err)
	s.True(second.Duplicate)
	s.Equal(first.ID, second.ID)
	s.Equal(first.Amount, second.Amount)

	// the balance moved exactly once
	updated, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(int64(20000), updated.AmountPaid)

	payments, err := s.service.ListPaymentsByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(1, payments.Total)
}

func (s *PaymentServiceSuite) TestDistinctKeysRecordDistinctPayments() {
	inv := s.createIssuedInvoice()

	for _, key := range []string{"key-a", "key-b"} {
		_, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
			InvoiceID:      inv.ID,
			Amount:         decimal.NewFromInt(100),
			PaymentMethod:  types.PaymentMethodCash,
			IdempotencyKey: lo.ToPtr(key),
		})
		s.NoError(err)
	}

	updated, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(int64(20000), updated.AmountPaid)

	payments, err := s.service.ListPaymentsByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(2, payments.Total)
}

func (s *PaymentServiceSuite) TestListPaymentsJoinsInvoiceNumber() {
	inv := s.createIssuedInvoice()

	_, err := s.service.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.NoError(err)

	all, err := s.service.ListPayments(s.GetContext())
	s.NoError(err)
	s.Equal(1, all.Total)
	s.Equal(inv.InvoiceNumber, all.Items[0].InvoiceNumber)
}
