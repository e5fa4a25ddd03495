package postgres

import (
	"fmt"
	"time"

	"context"

	domainInvoice "github.com/billmint/billmint/internal/domain/invoice"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/logger"
	"github.com/billmint/billmint/internal/postgres"
	"github.com/billmint/billmint/internal/types"
)

type invoiceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) domainInvoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithLineItems creates an invoice with its line items in a single transaction
func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *domainInvoice.Invoice) error {
	r.logger.Debugw("creating invoice with line items",
		"invoice_id", inv.ID,
		"line_items_count", len(inv.LineItems))

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO invoices (
				id, invoice_number, customer_name, customer_email, customer_phone,
				customer_tax_id, subtotal, discount_percent, discount_amount,
				tax_percent, tax_amount, total_amount, amount_paid, amount_due,
				status, issue_date, due_date, notes, version, created_at, updated_at
			) VALUES (
				:id, :invoice_number, :customer_name, :customer_email, :customer_phone,
				:customer_tax_id, :subtotal, :discount_percent, :discount_amount,
				:tax_percent, :tax_amount, :total_amount, :amount_paid, :amount_due,
				:status, :issue_date, :due_date, :notes, :version, :created_at, :updated_at
			)`

		if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
			return ierr.WithError(err).
				WithHint("invoice creation failed").
				WithReportableDetails(map[string]any{
					"invoice_id":     inv.ID,
					"invoice_number": inv.InvoiceNumber,
				}).
				Mark(ierr.ErrDatabase)
		}

		itemQuery := `
			INSERT INTO invoice_line_items (
				id, invoice_id, description, quantity, unit_price, amount,
				sort_order, created_at
			) VALUES (
				:id, :invoice_id, :description, :quantity, :unit_price, :amount,
				:sort_order, :created_at
			)`

		for _, item := range inv.LineItems {
			if _, err := r.db.NamedExecContext(ctx, itemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("line item creation failed").
					WithReportableDetails(map[string]any{
						"invoice_id":   inv.ID,
						"line_item_id": item.ID,
					}).
					Mark(ierr.ErrDatabase)
			}
		}

		return nil
	})
}

// Get retrieves an invoice by ID with its line items
func (r *invoiceRepository) Get(ctx context.Context, id string) (*domainInvoice.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = :id`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, ierr.WithError(err).WithHint("getting invoice failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var inv domainInvoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).WithHint("scanning invoice failed").Mark(ierr.ErrDatabase)
	}

	items, err := r.getLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items

	return &inv, nil
}

func (r *invoiceRepository) getLineItems(ctx context.Context, invoiceID string) ([]*domainInvoice.LineItem, error) {
	query := `
		SELECT * FROM invoice_line_items
		WHERE invoice_id = :invoice_id
		ORDER BY sort_order ASC`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"invoice_id": invoiceID})
	if err != nil {
		return nil, ierr.WithError(err).WithHint("getting line items failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var items []*domainInvoice.LineItem
	for rows.Next() {
		var item domainInvoice.LineItem
		if err := rows.StructScan(&item); err != nil {
			return nil, ierr.WithError(err).WithHint("scanning line item failed").Mark(ierr.ErrDatabase)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).WithHint("iterating line items failed").Mark(ierr.ErrDatabase)
	}

	return items, nil
}

// List retrieves invoices based on filter criteria, newest first
func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*domainInvoice.Invoice, error) {
	query := `SELECT * FROM invoices`
	params := map[string]interface{}{}

	if filter != nil && filter.Status != nil {
		query += ` WHERE status = :status`
		params["status"] = *filter.Status
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("listing invoices failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var invoices []*domainInvoice.Invoice
	for rows.Next() {
		var inv domainInvoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, ierr.WithError(err).WithHint("scanning invoice failed").Mark(ierr.ErrDatabase)
		}
		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).WithHint("iterating invoice rows failed").Mark(ierr.ErrDatabase)
	}

	return invoices, nil
}

// Update applies the invoice state with a version predicate for optimistic
// locking. Zero rows affected means either the invoice is gone or another
// writer advanced the version between our read and this write.
func (r *invoiceRepository) Update(ctx context.Context, inv *domainInvoice.Invoice) error {
	query := `
		UPDATE invoices SET
			status = :status,
			issue_date = :issue_date,
			due_date = :due_date,
			notes = :notes,
			void_reason = :void_reason,
			voided_at = :voided_at,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			version = version + 1,
			updated_at = NOW()
		WHERE id = :id
		AND version = :version`

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return ierr.WithError(err).WithHint("invoice update failed").Mark(ierr.ErrDatabase)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).WithHint("invoice update failed").Mark(ierr.ErrDatabase)
	}

	if n == 0 {
		// No rows were updated - either record doesn't exist or version mismatch
		exists, err := r.exists(ctx, inv.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ierr.NewError("invoice not found").
				WithHint("Invoice not found").
				WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.NewError("invoice version mismatch").
			WithHint("Invoice was modified by another user. Please refresh and try again.").
			WithReportableDetails(map[string]any{
				"invoice_id":       inv.ID,
				"expected_version": inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	inv.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *invoiceRepository) exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT count(*) FROM invoices WHERE id = :id`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return false, ierr.WithError(err).WithHint("invoice existence check failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, ierr.WithError(err).WithHint("invoice existence check failed").Mark(ierr.ErrDatabase)
		}
	}
	return count > 0, nil
}

// NextInvoiceNumber atomically reserves the next display number for the
// current month via an upsert on the monthly sequence row. Safe under
// concurrent callers and across service instances.
func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	yearMonth := time.Now().UTC().Format("200601") // YYYYMM

	query := `
		INSERT INTO invoice_sequences (year_month, last_value, created_at, updated_at)
		VALUES (:year_month, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (year_month) DO UPDATE
		SET last_value = invoice_sequences.last_value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING last_value`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"year_month": yearMonth})
	if err != nil {
		return "", ierr.WithError(err).WithHint("invoice number generation failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return "", ierr.NewError("no sequence value returned").
			WithHint("invoice number generation failed").
			Mark(ierr.ErrDatabase)
	}

	var lastValue int64
	if err := rows.Scan(&lastValue); err != nil {
		return "", ierr.WithError(err).WithHint("invoice number generation failed").Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("generated invoice number",
		"year_month", yearMonth,
		"sequence", lastValue)

	return fmt.Sprintf("INV-%s-%04d", yearMonth, lastValue), nil
}
