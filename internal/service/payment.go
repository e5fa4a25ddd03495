package service

import (
	"context"

	"github.com/billmint/billmint/internal/api/dto"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/types"
	"github.com/samber/lo"
)

// PaymentService owns payment recording and the payment read paths.
type PaymentService interface {
	RecordPayment(ctx context.Context, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
	ListPaymentsByInvoice(ctx context.Context, invoiceID string) (*dto.ListPaymentsResponse, error)
	ListPayments(ctx context.Context) (*dto.ListPaymentsResponse, error)
}

type paymentService struct {
	ServiceParams
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

// RecordPayment records a payment against an issued invoice and settles the
// invoice balance in the same transaction. The payment insert and the
// invoice's conditional update commit or roll back together, so a version
// conflict never leaves an orphaned payment behind.
//
// Idempotency: a replayed key is answered from the stored payment with no
// further mutation. The fast-path read catches ordinary retries; the unique
// constraint on idempotency_key catches concurrent identical requests, and
// the loser's stored payment is resolved after its transaction rolls back.
func (s *paymentService) RecordPayment(ctx context.Context, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.PaymentResponse
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if key := lo.FromPtr(req.IdempotencyKey); key != "" {
			existing, err := s.PaymentRepo.GetByIdempotencyKey(ctx, key)
			if err != nil && !ierr.IsNotFound(err) {
				return err
			}
			if existing != nil {
				s.Logger.Infow("returning existing payment for idempotency key",
					"idempotency_key", key,
					"payment_id", existing.ID)
				resp = dto.NewPaymentResponse(existing, true)
				return nil
			}
		}

		inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
		if err != nil {
			s.Logger.Warnw("payment rejected: invoice not found", "invoice_id", req.InvoiceID)
			return err
		}

		switch inv.InvoiceStatus {
		case types.InvoiceStatusVoided:
			s.Logger.Warnw("payment rejected: invoice voided",
				"invoice_number", inv.InvoiceNumber)
			return ierr.NewError("cannot pay voided invoice").
				WithHint("Cannot pay voided invoice").
				WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
				Mark(ierr.ErrInvalidOperation)
		case types.InvoiceStatusDraft:
			s.Logger.Warnw("payment rejected: invoice not issued",
				"invoice_number", inv.InvoiceNumber)
			return ierr.NewError("invoice must be issued first").
				WithHint("Invoice must be issued first").
				WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
				Mark(ierr.ErrInvalidOperation)
		case types.InvoiceStatusPaid:
			s.Logger.Warnw("payment rejected: invoice already paid",
				"invoice_number", inv.InvoiceNumber)
			return ierr.NewError("invoice already fully paid").
				WithHint("Invoice already fully paid").
				WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
				Mark(ierr.ErrInvalidOperation)
		}

		p := req.ToPayment()

		if p.Amount > inv.AmountDue {
			s.Logger.Warnw("payment rejected: exceeds amount due",
				"invoice_number", inv.InvoiceNumber,
				"amount", p.Amount,
				"amount_due", inv.AmountDue)
			return ierr.NewError("payment exceeds amount due").
				WithHint("Payment exceeds amount due").
				WithReportableDetails(map[string]any{
					"invoice_id": inv.ID,
					"amount":     p.Amount,
					"amount_due": inv.AmountDue,
				}).
				Mark(ierr.ErrValidation)
		}

		if err := p.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("invalid payment").
				Mark(ierr.ErrValidation)
		}

		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}

		inv.ApplyPayment(p.Amount)
		if err := inv.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("invalid invoice state").
				Mark(ierr.ErrSystem)
		}

		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}

		s.Logger.Infow("payment recorded",
			"payment_id", p.ID,
			"invoice_number", inv.InvoiceNumber,
			"amount", p.Amount,
			"status", inv.InvoiceStatus)

		resp = dto.NewPaymentResponse(p, false)
		return nil
	})

	if err != nil {
		// A concurrent request with the same fresh key won the insert race;
		// its payment is the authoritative one.
		if ierr.IsAlreadyExists(err) && lo.FromPtr(req.IdempotencyKey) != "" {
			existing, getErr := s.PaymentRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
			if getErr == nil {
				s.Logger.Infow("resolved concurrent duplicate payment",
					"idempotency_key", *req.IdempotencyKey,
					"payment_id", existing.ID)
				return dto.NewPaymentResponse(existing, true), nil
			}
		}
		s.Logger.Errorw("failed to record payment",
			"invoice_id", req.InvoiceID,
			"error", err)
		return nil, err
	}

	return resp, nil
}

func (s *paymentService) ListPaymentsByInvoice(ctx context.Context, invoiceID string) (*dto.ListPaymentsResponse, error) {
	payments, err := s.PaymentRepo.ListByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = dto.NewPaymentResponse(p, false)
	}

	return &dto.ListPaymentsResponse{Items: items, Total: len(items)}, nil
}

func (s *paymentService) ListPayments(ctx context.Context) (*dto.ListPaymentsResponse, error) {
	payments, err := s.PaymentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = dto.NewPaymentResponse(p, false)
	}

	return &dto.ListPaymentsResponse{Items: items, Total: len(items)}, nil
}
