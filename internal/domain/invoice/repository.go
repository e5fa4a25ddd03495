package invoice

import (
	"context"

	"github.com/billmint/billmint/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// CreateWithLineItems creates an invoice with its line items atomically
	CreateWithLineItems(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID with its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// List retrieves invoices based on filter criteria, newest first
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Update applies the invoice state conditioned on the version read by the
	// caller; the write succeeds only if the stored version still matches and
	// increments it by one. A losing writer gets ErrVersionConflict.
	Update(ctx context.Context, invoice *Invoice) error

	// NextInvoiceNumber atomically reserves the next display number for the
	// current month, format INV-YYYYMM-XXXX
	NextInvoiceNumber(ctx context.Context) (string, error)
}
