package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/billmint/billmint/internal/domain/payment"
	ierr "github.com/billmint/billmint/internal/errors"
)

// InMemoryPaymentStore is an in-memory implementation of payment.Repository.
// Idempotency key uniqueness is enforced the same way the postgres repository
// does via its unique index.
type InMemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
	byKey    map[string]string

	// invoiceStore, when set, backs the invoice number join on List
	invoiceStore *InMemoryInvoiceStore
}

var _ payment.Repository = (*InMemoryPaymentStore)(nil)

func NewInMemoryPaymentStore(invoiceStore *InMemoryInvoiceStore) *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		payments:     make(map[string]*payment.Payment),
		byKey:        make(map[string]string),
		invoiceStore: invoiceStore,
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	cp := *p
	return &cp
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment data is required").
			Mark(ierr.ErrValidation)
	}

	if p.IdempotencyKey != nil && *p.IdempotencyKey != "" {
		if _, exists := s.byKey[*p.IdempotencyKey]; exists {
			return ierr.NewError("payment already exists").
				WithHint("A payment with this idempotency key was already recorded").
				WithReportableDetails(map[string]any{"idempotency_key": *p.IdempotencyKey}).
				Mark(ierr.ErrAlreadyExists)
		}
		s.byKey[*p.IdempotencyKey] = p.ID
	}

	s.payments[p.ID] = copyPayment(p)
	return nil
}

func (s *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byKey[key]
	if !exists {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment was recorded with this idempotency key").
			Mark(ierr.ErrNotFound)
	}

	return copyPayment(s.payments[id]), nil
}

func (s *InMemoryPaymentStore) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			payments = append(payments, copyPayment(p))
		}
	}

	sortPaymentsByDateDesc(payments)
	return payments, nil
}

func (s *InMemoryPaymentStore) List(ctx context.Context) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := make([]*payment.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		cp := copyPayment(p)
		if s.invoiceStore != nil {
			if inv, err := s.invoiceStore.Get(context.Background(), p.InvoiceID); err == nil {
				cp.InvoiceNumber = inv.InvoiceNumber
			}
		}
		payments = append(payments, cp)
	}

	sortPaymentsByDateDesc(payments)
	return payments, nil
}

func sortPaymentsByDateDesc(payments []*payment.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.After(payments[j].PaymentDate)
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
}

// Clear removes all payments
func (s *InMemoryPaymentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = make(map[string]*payment.Payment)
	s.byKey = make(map[string]string)
}
