package invoice

import (
	"testing"

	"github.com/billmint/billmint/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validInvoice() *Invoice {
	return &Invoice{
		ID:              "inv_1",
		InvoiceNumber:   "INV-202608-0001",
		CustomerName:    "Acme Traders",
		Subtotal:        50000,
		DiscountPercent: decimal.NewFromInt(10),
		DiscountAmount:  5000,
		TaxPercent:      decimal.NewFromInt(18),
		TaxAmount:       8100,
		TotalAmount:     53100,
		AmountPaid:      0,
		AmountDue:       53100,
		InvoiceStatus:   types.InvoiceStatusDraft,
		Version:         1,
	}
}

func TestInvoiceValidate(t *testing.T) {
	t.Run("valid invoice", func(t *testing.T) {
		assert.NoError(t, validInvoice().Validate())
	})

	t.Run("broken total identity", func(t *testing.T) {
		inv := validInvoice()
		inv.TotalAmount = 53101
		inv.AmountDue = 53101
		assert.Error(t, inv.Validate())
	})

	t.Run("broken due identity", func(t *testing.T) {
		inv := validInvoice()
		inv.AmountDue = 1
		assert.Error(t, inv.Validate())
	})

	t.Run("paid above total", func(t *testing.T) {
		inv := validInvoice()
		inv.AmountPaid = inv.TotalAmount + 1
		inv.AmountDue = -1
		assert.Error(t, inv.Validate())
	})

	t.Run("negative subtotal", func(t *testing.T) {
		inv := validInvoice()
		inv.Subtotal = -1
		assert.Error(t, inv.Validate())
	})

	t.Run("unknown status", func(t *testing.T) {
		inv := validInvoice()
		inv.InvoiceStatus = types.InvoiceStatus("SHIPPED")
		assert.Error(t, inv.Validate())
	})

	t.Run("invalid line item", func(t *testing.T) {
		inv := validInvoice()
		inv.LineItems = []*LineItem{
			{ID: "li_1", InvoiceID: inv.ID, Description: "", Quantity: decimal.NewFromInt(1), UnitPrice: 100, Amount: 100},
		}
		assert.Error(t, inv.Validate())
	})
}

func TestApplyPayment(t *testing.T) {
	t.Run("partial payment", func(t *testing.T) {
		inv := validInvoice()
		inv.InvoiceStatus = types.InvoiceStatusIssued

		inv.ApplyPayment(10000)

		assert.Equal(t, types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)
		assert.Equal(t, int64(10000), inv.AmountPaid)
		assert.Equal(t, int64(43100), inv.AmountDue)
		assert.NoError(t, inv.Validate())
	})

	t.Run("settling payment", func(t *testing.T) {
		inv := validInvoice()
		inv.InvoiceStatus = types.InvoiceStatusIssued

		inv.ApplyPayment(53100)

		assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
		assert.Equal(t, int64(0), inv.AmountDue)
		assert.NoError(t, inv.Validate())
	})

	t.Run("two payments settle", func(t *testing.T) {
		inv := validInvoice()
		inv.InvoiceStatus = types.InvoiceStatusIssued

		inv.ApplyPayment(20000)
		assert.Equal(t, types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)

		inv.ApplyPayment(33100)
		assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
		assert.Equal(t, int64(53100), inv.AmountPaid)
		assert.NoError(t, inv.Validate())
	})
}
