package invoice

import (
	"time"

	"github.com/billmint/billmint/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. All monetary fields are int64
// minor units (paise). Version is the optimistic concurrency counter: every
// successful mutation increments it by exactly one via a conditional write.
type Invoice struct {
	ID              string              `db:"id" json:"id"`
	InvoiceNumber   string              `db:"invoice_number" json:"invoice_number"`
	CustomerName    string              `db:"customer_name" json:"customer_name"`
	CustomerEmail   *string             `db:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone   *string             `db:"customer_phone" json:"customer_phone,omitempty"`
	CustomerTaxID   *string             `db:"customer_tax_id" json:"customer_tax_id,omitempty"`
	Subtotal        int64               `db:"subtotal" json:"subtotal"`
	DiscountPercent decimal.Decimal     `db:"discount_percent" json:"discount_percent"`
	DiscountAmount  int64               `db:"discount_amount" json:"discount_amount"`
	TaxPercent      decimal.Decimal     `db:"tax_percent" json:"tax_percent"`
	TaxAmount       int64               `db:"tax_amount" json:"tax_amount"`
	TotalAmount     int64               `db:"total_amount" json:"total_amount"`
	AmountPaid      int64               `db:"amount_paid" json:"amount_paid"`
	AmountDue       int64               `db:"amount_due" json:"amount_due"`
	InvoiceStatus   types.InvoiceStatus `db:"status" json:"status"`
	IssueDate       time.Time           `db:"issue_date" json:"issue_date"`
	DueDate         *time.Time          `db:"due_date" json:"due_date,omitempty"`
	Notes           *string             `db:"notes" json:"notes,omitempty"`
	VoidReason      *string             `db:"void_reason" json:"void_reason,omitempty"`
	VoidedAt        *time.Time          `db:"voided_at" json:"voided_at,omitempty"`
	Version         int                 `db:"version" json:"version"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
	LineItems       []*LineItem         `db:"-" json:"line_items,omitempty"`
}

// Validate enforces the monetary identities of the invoice.
func (i *Invoice) Validate() error {
	if i.Subtotal < 0 {
		return NewValidationError("subtotal", "must be non negative")
	}

	if i.DiscountAmount < 0 {
		return NewValidationError("discount_amount", "must be non negative")
	}

	if i.TaxAmount < 0 {
		return NewValidationError("tax_amount", "must be non negative")
	}

	if i.TotalAmount != i.Subtotal-i.DiscountAmount+i.TaxAmount {
		return NewValidationError("total_amount", "must equal subtotal - discount_amount + tax_amount")
	}

	if i.AmountPaid < 0 {
		return NewValidationError("amount_paid", "must be non negative")
	}

	if i.AmountPaid > i.TotalAmount {
		return NewValidationError("amount_paid", "must be less than or equal to total_amount")
	}

	if i.AmountDue < 0 {
		return NewValidationError("amount_due", "must be non negative")
	}

	if i.AmountDue != i.TotalAmount-i.AmountPaid {
		return NewValidationError("amount_due", "must equal total_amount - amount_paid")
	}

	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}

	for _, item := range i.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ApplyPayment recomputes the invoice balance after a payment of amount minor
// units and moves the status to PAID when nothing remains due, else
// PARTIALLY_PAID. The caller is responsible for gating on the current status
// and on amount <= AmountDue before applying.
func (i *Invoice) ApplyPayment(amount int64) {
	i.AmountPaid += amount
	i.AmountDue = i.TotalAmount - i.AmountPaid

	if i.AmountDue <= 0 {
		i.InvoiceStatus = types.InvoiceStatusPaid
	} else {
		i.InvoiceStatus = types.InvoiceStatusPartiallyPaid
	}
}
