// Package memory keeps the invoice collection in process memory. Reads hand
// out copies so callers never share backing arrays with the store.
package memory

import (
	"fmt"
	"sync"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type Store struct {
	mu       sync.RWMutex
	invoices []domain.Invoice
	ids      map[string]struct{}
	// retired keeps deleted ids so they are never handed out again.
	retired map[string]struct{}
}

func New() *Store {
	return &Store{
		ids:     make(map[string]struct{}),
		retired: make(map[string]struct{}),
	}
}

func (s *Store) Add(inv domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[inv.ID]; ok {
		return domain.WrapError(domain.ErrInvalidInput, "add invoice", fmt.Errorf("duplicate id %s", inv.ID))
	}
	if _, ok := s.retired[inv.ID]; ok {
		return domain.WrapError(domain.ErrInvalidInput, "add invoice", fmt.Errorf("id %s was already used", inv.ID))
	}
	s.ids[inv.ID] = struct{}{}
	s.invoices = append(s.invoices, cloneInvoice(inv))
	return nil
}

func (s *Store) Snapshot() []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, cloneInvoice(inv))
	}
	return out
}

func (s *Store) Delete(id string) (domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, inv := range s.invoices {
		if inv.ID != id {
			continue
		}
		s.invoices = append(s.invoices[:i:i], s.invoices[i+1:]...)
		delete(s.ids, id)
		s.retired[id] = struct{}{}
		return inv, nil
	}
	return domain.Invoice{}, domain.WrapError(domain.ErrInvoiceNotFound, "delete invoice", fmt.Errorf("id %s", id))
}

// Replace swaps the whole collection. Ids of the previous records are
// retired.
func (s *Store) Replace(invoices []domain.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.ids {
		s.retired[id] = struct{}{}
	}
	s.ids = make(map[string]struct{}, len(invoices))
	s.invoices = make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if _, ok := s.ids[inv.ID]; ok {
			continue
		}
		s.ids[inv.ID] = struct{}{}
		s.invoices = append(s.invoices, cloneInvoice(inv))
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invoices)
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	inv.Items = append([]string(nil), inv.Items...)
	return inv
}
