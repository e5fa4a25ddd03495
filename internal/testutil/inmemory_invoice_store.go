package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/billmint/billmint/internal/domain/invoice"
	ierr "github.com/billmint/billmint/internal/errors"
	"github.com/billmint/billmint/internal/types"
)

// InMemoryInvoiceStore is an in-memory implementation of invoice.Repository
// with the same conditional-write semantics as the postgres repository.
type InMemoryInvoiceStore struct {
	mu        sync.RWMutex
	invoices  map[string]*invoice.Invoice
	sequences map[string]int64
}

var _ invoice.Repository = (*InMemoryInvoiceStore)(nil)

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices:  make(map[string]*invoice.Invoice),
		sequences: make(map[string]int64),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	cp := *inv
	if inv.LineItems != nil {
		cp.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
		for i, item := range inv.LineItems {
			itemCopy := *item
			cp.LineItems[i] = &itemCopy
		}
	}
	return &cp
}

func (s *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice data is required").
			Mark(ierr.ErrValidation)
	}

	if _, exists := s.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").
			WithHint("An invoice with this identifier already exists").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrAlreadyExists)
	}

	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.invoices[id]
	if !exists {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice with the given ID was not found").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}

	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]*invoice.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if filter != nil && filter.Status != nil && inv.InvoiceStatus != *filter.Status {
			continue
		}
		invoices = append(invoices, copyInvoice(inv))
	}

	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})

	return invoices, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.invoices[inv.ID]
	if !exists {
		return ierr.NewError("invoice not found").
			WithHint("Invoice with the given ID was not found").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrNotFound)
	}

	if existing.Version != inv.Version {
		return ierr.NewError("invoice version conflict").
			WithHint("Invoice was modified by another user. Please refresh and try again.").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	updated := copyInvoice(inv)
	updated.Version = existing.Version + 1
	updated.UpdatedAt = time.Now().UTC()
	updated.LineItems = existing.LineItems
	s.invoices[inv.ID] = updated

	inv.Version = updated.Version
	inv.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *InMemoryInvoiceStore) NextInvoiceNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	yearMonth := time.Now().UTC().Format("200601")
	s.sequences[yearMonth]++
	return fmt.Sprintf("INV-%s-%04d", yearMonth, s.sequences[yearMonth]), nil
}

// Clear removes all invoices and sequence state
func (s *InMemoryInvoiceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = make(map[string]*invoice.Invoice)
	s.sequences = make(map[string]int64)
}
