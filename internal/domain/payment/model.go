package payment

import (
	"time"

	"github.com/billmint/billmint/internal/types"
)

// Payment represents a recorded payment against an invoice. A payment is
// created once and never mutated; the invoice balance update and the payment
// insert commit in the same transaction.
type Payment struct {
	ID              string              `db:"id" json:"id"`
	InvoiceID       string              `db:"invoice_id" json:"invoice_id"`
	Amount          int64               `db:"amount" json:"amount"`
	PaymentMethod   types.PaymentMethod `db:"payment_method" json:"payment_method"`
	ReferenceNumber *string             `db:"reference_number" json:"reference_number,omitempty"`
	PaymentDate     time.Time           `db:"payment_date" json:"payment_date"`
	Notes           *string             `db:"notes" json:"notes,omitempty"`
	IdempotencyKey  *string             `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`

	// InvoiceNumber is populated on joined listings only
	InvoiceNumber string `db:"invoice_number" json:"invoice_number,omitempty"`
}

func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return NewValidationError("invoice_id", "must not be empty")
	}

	if p.Amount <= 0 {
		return NewValidationError("amount", "must be positive")
	}

	if err := p.PaymentMethod.Validate(); err != nil {
		return err
	}

	return nil
}
