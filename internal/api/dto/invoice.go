package dto

import (
	"time"

	"github.com/billmint/billmint/internal/domain/invoice"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/types"
	"github.com/billmint/billmint/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceLineItemRequest represents one line of a new invoice.
// unit_price is in major units (rupees); conversion to paise happens once,
// here, rounded per line item.
type CreateInvoiceLineItemRequest struct {
	// description of the billed item
	Description string `json:"description" validate:"required"`

	// quantity being billed; may be fractional
	Quantity decimal.Decimal `json:"quantity" validate:"required"`

	// unit_price in major currency units
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

// CreateInvoiceRequest represents the request payload for creating a new invoice
type CreateInvoiceRequest struct {
	// customer_name is the billed party; snapshotted onto the invoice
	CustomerName string `json:"customer_name" validate:"required"`

	CustomerEmail *string `json:"customer_email,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	CustomerTaxID *string `json:"customer_tax_id,omitempty"`

	// due_date is the date by which payment is expected
	DueDate *time.Time `json:"due_date,omitempty"`

	// discount_percent applied to the subtotal; defaults to 0
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`

	// tax_percent applied to the discounted amount; defaults to 18
	TaxPercent *decimal.Decimal `json:"tax_percent,omitempty"`

	Notes *string `json:"notes,omitempty"`

	// line_items contains the individual items that make up this invoice
	LineItems []CreateInvoiceLineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	for _, item := range r.LineItems {
		if !item.Quantity.IsPositive() {
			return ierr.NewError("line item quantity must be positive").
				WithHint("Line item quantity must be positive").
				WithReportableDetails(map[string]any{
					"description": item.Description,
					"quantity":    item.Quantity.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		if !item.UnitPrice.IsPositive() {
			return ierr.NewError("line item unit price must be positive").
				WithHint("Line item unit price must be positive").
				WithReportableDetails(map[string]any{
					"description": item.Description,
					"unit_price":  item.UnitPrice.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if r.DiscountPercent != nil {
		if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return ierr.NewError("discount_percent must be between 0 and 100").
				WithHint("Discount percent must be between 0 and 100").
				Mark(ierr.ErrValidation)
		}
	}

	if r.TaxPercent != nil && r.TaxPercent.IsNegative() {
		return ierr.NewError("tax_percent must be non-negative").
			WithHint("Tax percent must be non-negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ToInvoice converts the request to a DRAFT invoice at version 1 with all
// monetary fields computed in minor units.
func (r *CreateInvoiceRequest) ToInvoice() *invoice.Invoice {
	discountPercent := decimal.Zero
	if r.DiscountPercent != nil {
		discountPercent = *r.DiscountPercent
	}
	taxPercent := types.DefaultTaxPercent
	if r.TaxPercent != nil {
		taxPercent = *r.TaxPercent
	}

	now := time.Now().UTC()
	invoiceID := types.GenerateUUIDWithPrefix(types.UUIDPrefixInvoice)

	var subtotal int64
	lineItems := make([]*invoice.LineItem, len(r.LineItems))
	for i, item := range r.LineItems {
		amount := types.LineAmountMinor(item.Quantity, item.UnitPrice)
		subtotal += amount
		lineItems[i] = &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUIDPrefixLineItem),
			InvoiceID:   invoiceID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   types.MinorFromDecimal(item.UnitPrice),
			Amount:      amount,
			SortOrder:   i,
			CreatedAt:   now,
		}
	}

	discountAmount := types.PercentOfMinor(subtotal, discountPercent)
	taxAmount := types.PercentOfMinor(subtotal-discountAmount, taxPercent)
	totalAmount := subtotal - discountAmount + taxAmount

	return &invoice.Invoice{
		ID:              invoiceID,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		CustomerTaxID:   r.CustomerTaxID,
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
		TaxPercent:      taxPercent,
		TaxAmount:       taxAmount,
		TotalAmount:     totalAmount,
		AmountPaid:      0,
		AmountDue:       totalAmount,
		InvoiceStatus:   types.InvoiceStatusDraft,
		IssueDate:       now.Truncate(24 * time.Hour),
		DueDate:         r.DueDate,
		Notes:           r.Notes,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		LineItems:       lineItems,
	}
}

// VoidInvoiceRequest carries the reason an invoice is being voided
type VoidInvoiceRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (r *VoidInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// InvoiceResponse represents the response payload for invoice operations
type InvoiceResponse struct {
	*invoice.Invoice
}

// NewInvoiceResponse creates a new invoice response
func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse struct {
	Items []*InvoiceResponse `json:"items"`
	Total int                `json:"total"`
}

// InvoiceStatsResponse is the aggregate rollup over all invoices. Outstanding
// and collected totals exclude VOIDED invoices.
type InvoiceStatsResponse struct {
	Total            int   `json:"total"`
	Draft            int   `json:"draft"`
	Issued           int   `json:"issued"`
	PartiallyPaid    int   `json:"partially_paid"`
	Paid             int   `json:"paid"`
	Voided           int   `json:"voided"`
	TotalOutstanding int64 `json:"total_outstanding"`
	TotalCollected   int64 `json:"total_collected"`
}
