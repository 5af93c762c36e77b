// Package store provides invoice.Store implementations: an in-memory store for tests
// and single-process use, and a PostgreSQL store backed by gorm.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"invoicing/internal/invoice"
)

// MemoryStore keeps invoices in a map guarded by a RWMutex. Results are ordered by
// insertion.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
	byNumber map[string]string
	order    []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]*invoice.Invoice),
		byNumber: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byNumber[inv.InvoiceNumber]; taken {
		return invoice.ErrDuplicateNumber
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}

	s.invoices[inv.ID] = inv.Clone()
	s.byNumber[inv.InvoiceNumber] = inv.ID
	s.order = append(s.order, inv.ID)
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, inv *invoice.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return invoice.ErrNotFound
	}
	if inv.InvoiceNumber != existing.InvoiceNumber {
		if _, taken := s.byNumber[inv.InvoiceNumber]; taken {
			return invoice.ErrDuplicateNumber
		}
		delete(s.byNumber, existing.InvoiceNumber)
		s.byNumber[inv.InvoiceNumber] = inv.ID
	}
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, invoice.ErrNotFound
	}
	return inv.Clone(), nil
}

func (s *MemoryStore) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[number]
	if !ok {
		return nil, invoice.ErrNotFound
	}
	return s.invoices[id].Clone(), nil
}

func (s *MemoryStore) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byNumber[number]
	return ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return invoice.ErrNotFound
	}
	delete(s.invoices, id)
	delete(s.byNumber, inv.InvoiceNumber)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, c invoice.Criteria) ([]invoice.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(c), nil
}

func (s *MemoryStore) FindPage(ctx context.Context, c invoice.Criteria, p invoice.PageRequest) (invoice.Page, error) {
	if err := ctx.Err(); err != nil {
		return invoice.Page{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return invoice.Paginate(s.filter(c), p), nil
}

func (s *MemoryStore) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var numbers []string
	for number := range s.byNumber {
		if strings.HasPrefix(number, prefix) {
			numbers = append(numbers, number)
		}
	}
	sort.Strings(numbers)
	return numbers, nil
}

// filter must be called with the read lock held.
func (s *MemoryStore) filter(c invoice.Criteria) []invoice.Invoice {
	result := make([]invoice.Invoice, 0)
	for _, id := range s.order {
		inv := s.invoices[id]
		if c.Matches(inv) {
			result = append(result, *inv.Clone())
		}
	}
	return result
}
