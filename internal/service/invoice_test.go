package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/billmint/billmint/internal/api/dto"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/testutil"
	"github.com/billmint/billmint/internal/types"
	"github.com/billmint/billmint/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceSuite
	service InvoiceService
	params  ServiceParams
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	validator.NewValidator()
	s.SetupTestEnvironment()

	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		InvoiceRepo: stores.InvoiceStore,
		PaymentRepo: stores.PaymentStore,
	}
	s.service = NewInvoiceService(s.params)
}

func (s *InvoiceServiceSuite) newCreateRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		CustomerName: "Acme Traders",
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(150)},
			{Description: "Support retainer", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(200)},
		},
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	req := s.newCreateRequest()
	req.DiscountPercent = lo.ToPtr(decimal.NewFromInt(10))

	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.NotNil(resp)

	// 2x150 + 1x200 = 500.00 -> 50000 paise
	s.Equal(int64(50000), resp.Subtotal)
	s.Equal(int64(5000), resp.DiscountAmount)
	// default tax 18% on the discounted 45000
	s.Equal(int64(8100), resp.TaxAmount)
	s.Equal(int64(53100), resp.TotalAmount)
	s.Equal(int64(0), resp.AmountPaid)
	s.Equal(int64(53100), resp.AmountDue)

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Equal(1, resp.Version)
	s.Len(resp.LineItems, 2)

	yearMonth := time.Now().UTC().Format("200601")
	s.Equal(fmt.Sprintf("INV-%s-0001", yearMonth), resp.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceSequentialNumbers() {
	first, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	second, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	yearMonth := time.Now().UTC().Format("200601")
	s.Equal(fmt.Sprintf("INV-%s-0001", yearMonth), first.InvoiceNumber)
	s.Equal(fmt.Sprintf("INV-%s-0002", yearMonth), second.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceZeroTax() {
	req := s.newCreateRequest()
	req.TaxPercent = lo.ToPtr(decimal.Zero)

	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.Equal(int64(0), resp.TaxAmount)
	s.Equal(resp.Subtotal, resp.TotalAmount)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceFractionalRounding() {
	// 3 x 33.335 = 100.005 -> rounds half away from zero to 10001 paise
	req := dto.CreateInvoiceRequest{
		CustomerName: "Acme Traders",
		TaxPercent:   lo.ToPtr(decimal.Zero),
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Widget", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("33.335")},
		},
	}

	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.Equal(int64(10001), resp.Subtotal)
	s.Equal(int64(10001), resp.TotalAmount)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceValidation() {
	testCases := []struct {
		name    string
		mutate  func(req *dto.CreateInvoiceRequest)
		wantErr func(err error) bool
	}{
		{
			name:    "missing customer name",
			mutate:  func(req *dto.CreateInvoiceRequest) { req.CustomerName = "" },
			wantErr: ierr.IsValidation,
		},
		{
			name:    "no line items",
			mutate:  func(req *dto.CreateInvoiceRequest) { req.LineItems = nil },
			wantErr: ierr.IsValidation,
		},
		{
			name: "zero quantity",
			mutate: func(req *dto.CreateInvoiceRequest) {
				req.LineItems[0].Quantity = decimal.Zero
			},
			wantErr: ierr.IsValidation,
		},
		{
			name: "negative unit price",
			mutate: func(req *dto.CreateInvoiceRequest) {
				req.LineItems[0].UnitPrice = decimal.NewFromInt(-10)
			},
			wantErr: ierr.IsValidation,
		},
		{
			name: "discount over 100",
			mutate: func(req *dto.CreateInvoiceRequest) {
				req.DiscountPercent = lo.ToPtr(decimal.NewFromInt(101))
			},
			wantErr: ierr.IsValidation,
		},
		{
			name: "negative tax",
			mutate: func(req *dto.CreateInvoiceRequest) {
				req.TaxPercent = lo.ToPtr(decimal.NewFromInt(-1))
			},
			wantErr: ierr.IsValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			req := s.newCreateRequest()
			tc.mutate(&req)

			resp, err := s.service.CreateInvoice(s.GetContext(), req)
			s.Error(err)
			s.True(tc.wantErr(err))
			s.Nil(resp)
		})
	}
}

func (s *InvoiceServiceSuite) TestGetInvoiceNotFound() {
	resp, err := s.service.GetInvoice(s.GetContext(), "inv_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
	s.Nil(resp)
}

func (s *InvoiceServiceSuite) TestIssueInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	issued, err := s.service.IssueInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, issued.InvoiceStatus)
	s.Equal(2, issued.Version)
}

func (s *InvoiceServiceSuite) TestIssueInvoiceTwice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	_, err = s.service.IssueInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	resp, err := s.service.IssueInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Nil(resp)
}

func (s *InvoiceServiceSuite) TestVoidDraftInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	voided, err := s.service.VoidInvoice(s.GetContext(), created.ID, "duplicate entry")
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoided, voided.InvoiceStatus)
	s.Equal("duplicate entry", lo.FromPtr(voided.VoidReason))
	s.NotNil(voided.VoidedAt)
	s.Equal(2, voided.Version)
}

func (s *InvoiceServiceSuite) TestVoidIssuedInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	voided, err := s.service.VoidInvoice(s.GetContext(), created.ID, "customer cancelled")
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoided, voided.InvoiceStatus)
	s.Equal(3, voided.Version)
}

func (s *InvoiceServiceSuite) TestVoidInvoiceTwice() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	_, err = s.service.VoidInvoice(s.GetContext(), created.ID, "first void")
	s.NoError(err)

	resp, err := s.service.VoidInvoice(s.GetContext(), created.ID, "second void")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Nil(resp)
}

func (s *InvoiceServiceSuite) TestVoidInvoiceWithPayments() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	paymentService := NewPaymentService(s.params)
	_, err = paymentService.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     created.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.NoError(err)

	resp, err := s.service.VoidInvoice(s.GetContext(), created.ID, "late void attempt")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Nil(resp)
}

func (s *InvoiceServiceSuite) TestListInvoicesWithStatusFilter() {
	draft, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	issued, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), issued.ID)
	s.NoError(err)

	all, err := s.service.ListInvoices(s.GetContext(), nil)
	s.NoError(err)
	s.Equal(2, all.Total)

	drafts, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		Status: lo.ToPtr(types.InvoiceStatusDraft),
	})
	s.NoError(err)
	s.Equal(1, drafts.Total)
	s.Equal(draft.ID, drafts.Items[0].ID)
}

func (s *InvoiceServiceSuite) TestListInvoicesRejectsUnknownStatus() {
	badStatus := types.InvoiceStatus("SHIPPED")
	resp, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{Status: &badStatus})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Nil(resp)
}

func (s *InvoiceServiceSuite) TestGetInvoiceStats() {
	// one draft, one issued with a partial payment, one voided
	_, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	issued, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	_, err = s.service.IssueInvoice(s.GetContext(), issued.ID)
	s.NoError(err)

	paymentService := NewPaymentService(s.params)
	_, err = paymentService.RecordPayment(s.GetContext(), dto.RecordPaymentRequest{
		InvoiceID:     issued.ID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: types.PaymentMethodUPI,
	})
	s.NoError(err)

	voided, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)
	_, err = s.service.VoidInvoice(s.GetContext(), voided.ID, "entered twice")
	s.NoError(err)

	stats, err := s.service.GetInvoiceStats(s.GetContext())
	s.NoError(err)
	s.Equal(3, stats.Total)
	s.Equal(1, stats.Draft)
	s.Equal(1, stats.PartiallyPaid)
	s.Equal(1, stats.Voided)
	s.Equal(0, stats.Issued)
	s.Equal(0, stats.Paid)

	// voided invoice contributes nothing; 100.00 collected on the issued one.
	// Each invoice totals 59000 paise (50000 + 18% tax), so outstanding is
	// the draft's 59000 plus the issued one's remaining 49000.
	s.Equal(int64(10000), stats.TotalCollected)
	s.Equal(int64(108000), stats.TotalOutstanding)
}

func (s *InvoiceServiceSuite) TestUpdateVersionConflict() {
	created, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest())
	s.NoError(err)

	store := s.GetStores().InvoiceStore

	first, err := store.Get(s.GetContext(), created.ID)
	s.NoError(err)
	second, err := store.Get(s.GetContext(), created.ID)
	s.NoError(err)

	first.InvoiceStatus = types.InvoiceStatusIssued
	s.NoError(store.Update(s.GetContext(), first))
	s.Equal(2, first.Version)

	second.InvoiceStatus = types.InvoiceStatusVoided
	err = store.Update(s.GetContext(), second)
	s.Error(err)
	s.True(ierr.IsVersionConflict(err))

	// the winning write is intact
	current, err := store.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, current.InvoiceStatus)
	s.Equal(2, current.Version)
}
