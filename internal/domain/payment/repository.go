package payment

import (
	"context"
)

// Repository defines the interface for payment persistence operations
type Repository interface {
	// Create inserts a new payment. Inserting a second payment with the same
	// idempotency key fails with ErrAlreadyExists; the storage layer enforces
	// the uniqueness so concurrent identical requests cannot both succeed.
	Create(ctx context.Context, payment *Payment) error

	// GetByIdempotencyKey retrieves a payment by its idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)

	// ListByInvoiceID retrieves payments for an invoice, date descending
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]*Payment, error)

	// List retrieves all payments joined with the owning invoice's display
	// number, date descending
	List(ctx context.Context) ([]*Payment, error)
}
