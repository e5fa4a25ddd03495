package postgres

import (
	"context"
	"errors"

	domainPayment "github.com/billmint/billmint/internal/domain/payment"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/logger"
	"github.com/billmint/billmint/internal/postgres"
	"github.com/lib/pq"
)

// pq error code for unique constraint violations
const uniqueViolation = "23505"

type paymentRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db postgres.IClient, logger *logger.Logger) domainPayment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new payment. The unique index on idempotency_key is the
// duplicate-detection signal: two concurrent requests with the same fresh key
// cannot both insert, the loser gets ErrAlreadyExists.
func (r *paymentRepository) Create(ctx context.Context, p *domainPayment.Payment) error {
	query := `
		INSERT INTO payments (
			id, invoice_id, amount, payment_method, reference_number,
			payment_date, notes, idempotency_key, created_at
		) VALUES (
			:id, :invoice_id, :amount, :payment_method, :reference_number,
			:payment_date, :notes, :idempotency_key, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ierr.WithError(err).
				WithHint("Payment with same idempotency key already exists").
				WithReportableDetails(map[string]any{
					"invoice_id":      p.InvoiceID,
					"idempotency_key": p.IdempotencyKey,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("payment creation failed").
			WithReportableDetails(map[string]any{
				"invoice_id": p.InvoiceID,
				"payment_id": p.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// GetByIdempotencyKey retrieves a payment by its idempotency key
func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domainPayment.Payment, error) {
	query := `SELECT * FROM payments WHERE idempotency_key = :idempotency_key`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"idempotency_key": key})
	if err != nil {
		return nil, ierr.WithError(err).WithHint("getting payment failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}

	var p domainPayment.Payment
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).WithHint("scanning payment failed").Mark(ierr.ErrDatabase)
	}

	return &p, nil
}

// ListByInvoiceID retrieves payments for an invoice, date descending
func (r *paymentRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*domainPayment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE invoice_id = :invoice_id
		ORDER BY payment_date DESC, created_at DESC`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"invoice_id": invoiceID})
	if err != nil {
		return nil, ierr.WithError(err).WithHint("listing payments failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var payments []*domainPayment.Payment
	for rows.Next() {
		var p domainPayment.Payment
		if err := rows.StructScan(&p); err != nil {
			return nil, ierr.WithError(err).WithHint("scanning payment failed").Mark(ierr.ErrDatabase)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).WithHint("iterating payment rows failed").Mark(ierr.ErrDatabase)
	}

	return payments, nil
}

// List retrieves all payments joined to the owning invoice's display number
func (r *paymentRepository) List(ctx context.Context) ([]*domainPayment.Payment, error) {
	query := `
		SELECT p.*, i.invoice_number
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		ORDER BY p.payment_date DESC, p.created_at DESC`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{})
	if err != nil {
		return nil, ierr.WithError(err).WithHint("listing payments failed").Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var payments []*domainPayment.Payment
	for rows.Next() {
		var p domainPayment.Payment
		if err := rows.StructScan(&p); err != nil {
			return nil, ierr.WithError(err).WithHint("scanning payment failed").Mark(ierr.ErrDatabase)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).WithHint("iterating payment rows failed").Mark(ierr.ErrDatabase)
	}

	return payments, nil
}
