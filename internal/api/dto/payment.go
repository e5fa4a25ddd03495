package dto

import (
	"time"

	"github.com/billmint/billmint/internal/domain/payment"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/types"
	"github.com/billmint/billmint/internal/validator"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest represents the request payload for recording a payment.
// amount is in major units; the optional idempotency_key makes retries safe.
type RecordPaymentRequest struct {
	// invoice_id is the invoice this payment settles against
	InvoiceID string `json:"invoice_id" validate:"required"`

	// amount in major currency units
	Amount decimal.Decimal `json:"amount" validate:"required"`

	// payment_method records how the payment was made
	PaymentMethod types.PaymentMethod `json:"payment_method" validate:"required"`

	// reference_number is an optional external reference (UTR, cheque no, ...)
	ReferenceNumber *string `json:"reference_number,omitempty"`

	Notes *string `json:"notes,omitempty"`

	// idempotency_key makes repeated submissions of the same payment safe;
	// a replay returns the original payment flagged as a duplicate
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if err := r.PaymentMethod.Validate(); err != nil {
		return err
	}

	if !r.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ToPayment converts the request to a payment domain model with the amount in
// minor units and today's payment date.
func (r *RecordPaymentRequest) ToPayment() *payment.Payment {
	now := time.Now().UTC()
	return &payment.Payment{
		ID:              types.GenerateUUIDWithPrefix(types.UUIDPrefixPayment),
		InvoiceID:       r.InvoiceID,
		Amount:          types.MinorFromDecimal(r.Amount),
		PaymentMethod:   r.PaymentMethod,
		ReferenceNumber: r.ReferenceNumber,
		PaymentDate:     now.Truncate(24 * time.Hour),
		Notes:           r.Notes,
		IdempotencyKey:  r.IdempotencyKey,
		CreatedAt:       now,
	}
}

// PaymentResponse represents the response payload for payment operations.
// Duplicate is true when the payment was resolved from an idempotency-key
// replay rather than newly recorded.
type PaymentResponse struct {
	*payment.Payment
	Duplicate bool `json:"duplicate"`
}

// NewPaymentResponse creates a new payment response
func NewPaymentResponse(p *payment.Payment, duplicate bool) *PaymentResponse {
	return &PaymentResponse{Payment: p, Duplicate: duplicate}
}

// ListPaymentsResponse represents the response for listing payments
type ListPaymentsResponse struct {
	Items []*PaymentResponse `json:"items"`
	Total int                `json:"total"`
}
