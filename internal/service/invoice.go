package service

import (
	"context"
	"time"

	"github.com/billmint/billmint/internal/api/dto"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/types"
	"github.com/samber/lo"
)

// InvoiceService owns the invoice lifecycle: create (DRAFT), issue, void and
// the read paths. Every mutation goes through the repository's conditional
// update, so a writer that lost the version race surfaces a conflict instead
// of clobbering concurrent state.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	IssueInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	VoidInvoice(ctx context.Context, id string, reason string) (*dto.InvoiceResponse, error)
	GetInvoiceStats(ctx context.Context) (*dto.InvoiceStatsResponse, error)
}

type invoiceService struct {
	ServiceParams
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

// CreateInvoice computes totals from the line items and persists a DRAFT
// invoice at version 1. The invoice number reservation and the inserts share
// one transaction so an insert failure never burns a number silently.
func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.InvoiceResponse
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		invoiceNumber, err := s.InvoiceRepo.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		inv := req.ToInvoice()
		inv.InvoiceNumber = invoiceNumber

		if err := inv.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("invalid invoice state").
				Mark(ierr.ErrValidation)
		}

		if err := s.InvoiceRepo.CreateWithLineItems(ctx, inv); err != nil {
			return err
		}

		resp = dto.NewInvoiceResponse(inv)
		return nil
	})

	if err != nil {
		s.Logger.Errorw("failed to create invoice",
			"error", err,
			"customer_name", req.CustomerName)
		return nil, err
	}

	s.Logger.Infow("invoice created",
		"invoice_id", resp.ID,
		"invoice_number", resp.InvoiceNumber,
		"total_amount", resp.TotalAmount)

	return resp, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = dto.NewInvoiceResponse(inv)
	}

	return &dto.ListInvoicesResponse{
		Items: items,
		Total: len(items),
	}, nil
}

// IssueInvoice moves a DRAFT invoice to ISSUED, stamping the issue date. The
// version compare-and-swap surfaces a conflict if another writer got there
// first; the caller must refresh and retry.
func (s *invoiceService) IssueInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		s.Logger.Warnw("issue rejected: invoice not found", "invoice_id", id)
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusDraft {
		s.Logger.Warnw("issue rejected: not a draft",
			"invoice_number", inv.InvoiceNumber,
			"status", inv.InvoiceStatus)
		return nil, ierr.NewError("only draft invoices can be issued").
			WithHint("Only draft invoices can be issued").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"status":     inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv.InvoiceStatus = types.InvoiceStatusIssued
	inv.IssueDate = time.Now().UTC().Truncate(24 * time.Hour)

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		s.Logger.Warnw("failed to issue invoice",
			"invoice_number", inv.InvoiceNumber,
			"error", err)
		return nil, err
	}

	s.Logger.Infow("invoice issued",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"version", inv.Version)

	return dto.NewInvoiceResponse(inv), nil
}

// VoidInvoice cancels an invoice. Voiding is refused once any payment has
// been recorded, even a partial one; VOIDED is terminal.
func (s *invoiceService) VoidInvoice(ctx context.Context, id string, reason string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		s.Logger.Warnw("void rejected: invoice not found", "invoice_id", id)
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusVoided {
		s.Logger.Warnw("void rejected: already voided",
			"invoice_number", inv.InvoiceNumber)
		return nil, ierr.NewError("invoice already voided").
			WithHint("Invoice already voided").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	if inv.AmountPaid > 0 {
		s.Logger.Warnw("void rejected: invoice has payments",
			"invoice_number", inv.InvoiceNumber,
			"amount_paid", inv.AmountPaid)
		return nil, ierr.NewError("cannot void invoice with payments").
			WithHint("Cannot void invoice with payments").
			WithReportableDetails(map[string]any{
				"invoice_id":  inv.ID,
				"amount_paid": inv.AmountPaid,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	inv.InvoiceStatus = types.InvoiceStatusVoided
	inv.VoidReason = lo.ToPtr(reason)
	inv.VoidedAt = &now

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		s.Logger.Warnw("failed to void invoice",
			"invoice_number", inv.InvoiceNumber,
			"error", err)
		return nil, err
	}

	s.Logger.Infow("invoice voided",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"reason", reason)

	return dto.NewInvoiceResponse(inv), nil
}

// GetInvoiceStats recomputes the rollup from a full scan on every call.
// VOIDED invoices are counted but excluded from the monetary totals.
func (s *invoiceService) GetInvoiceStats(ctx context.Context) (*dto.InvoiceStatsResponse, error) {
	invoices, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{})
	if err != nil {
		return nil, err
	}

	stats := &dto.InvoiceStatsResponse{Total: len(invoices)}
	for _, inv := range invoices {
		switch inv.InvoiceStatus {
		case types.InvoiceStatusDraft:
			stats.Draft++
		case types.InvoiceStatusIssued:
			stats.Issued++
		case types.InvoiceStatusPartiallyPaid:
			stats.PartiallyPaid++
		case types.InvoiceStatusPaid:
			stats.Paid++
		case types.InvoiceStatusVoided:
			stats.Voided++
		}

		if inv.InvoiceStatus != types.InvoiceStatusVoided {
			stats.TotalOutstanding += inv.AmountDue
			stats.TotalCollected += inv.AmountPaid
		}
	}

	return stats, nil
}
