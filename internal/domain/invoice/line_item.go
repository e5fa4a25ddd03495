package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem belongs to exactly one invoice and is immutable after creation.
// Amount is quantity x unit price in minor units, rounded at creation time.
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   int64           `db:"unit_price" json:"unit_price"`
	Amount      int64           `db:"amount" json:"amount"`
	SortOrder   int             `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

func (li *LineItem) Validate() error {
	if li.Description == "" {
		return NewValidationError("description", "must not be empty")
	}

	if !li.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}

	if li.UnitPrice <= 0 {
		return NewValidationError("unit_price", "must be positive")
	}

	if li.Amount < 0 {
		return NewValidationError("amount", "must be non negative")
	}

	return nil
}
