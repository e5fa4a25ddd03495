package types

import (
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice is editable and not yet payable
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusIssued indicates the invoice has been issued to the customer
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	// InvoiceStatusPartiallyPaid indicates some but not all of the total has been paid
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	// InvoiceStatusPaid indicates the invoice is fully settled
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusVoided indicates the invoice has been cancelled; terminal
	InvoiceStatusVoided InvoiceStatus = "VOIDED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusVoided,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DefaultTaxPercent is applied when the create request does not specify one
var DefaultTaxPercent = decimal.NewFromInt(18)

// InvoiceFilter represents the filter for listing invoices
type InvoiceFilter struct {
	Status *InvoiceStatus `form:"status"`
}

func (f *InvoiceFilter) Validate() error {
	if f.Status != nil {
		if err := f.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}
