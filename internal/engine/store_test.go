package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
)

// fakeStore is an in-memory repository.TransactionStore. Commit stages every
// mutation on a copy and swaps it in only when the mutate callback succeeds,
// mirroring the all-or-nothing contract of the real store.
type fakeStore struct {
	mu          sync.Mutex
	transaction domain.RentalTransaction
	itemOrder   []string
	items       map[string]domain.RentalItem
	products    map[string]domain.Product

	conditionRecords []domain.ConditionRecord
	commits          int

	snapshotErr error
	commitErr   error // returned before mutate runs
}

func newFakeStore(tx domain.RentalTransaction, items []domain.RentalItem, products []domain.Product) *fakeStore {
	s := &fakeStore{
		transaction: tx,
		items:       make(map[string]domain.RentalItem, len(items)),
		products:    make(map[string]domain.Product, len(products)),
	}
	for _, it := range items {
		if it.ReturnStatus == "" {
			// Mirror the schema default (docs/schema.sql: return_status DEFAULT 'NONE').
			it.ReturnStatus = domain.ReturnStatusNone
		}
		s.itemOrder = append(s.itemOrder, it.ID)
		s.items[it.ID] = it
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) ReadSnapshot(_ context.Context, transactionID string) (*domain.TransactionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	if transactionID != s.transaction.ID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, repository.ErrNotFound)
	}

	snap := &domain.TransactionSnapshot{
		Transaction: s.transaction,
		Products:    make(map[string]domain.Product, len(s.products)),
		TakenAt:     time.Now(),
	}
	for _, id := range s.itemOrder {
		snap.Items = append(snap.Items, s.items[id])
	}
	for id, p := range s.products {
		snap.Products[id] = p
	}
	return snap, nil
}

func (s *fakeStore) Commit(ctx context.Context, transactionID string, mutate func(ctx context.Context, m repository.Mutation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	if transactionID != s.transaction.ID {
		return fmt.Errorf("transaction %s: %w", transactionID, repository.ErrNotFound)
	}

	staged := &fakeMutation{
		transaction: s.transaction,
		itemOrder:   s.itemOrder,
		items:       make(map[string]domain.RentalItem, len(s.items)),
		products:    make(map[string]domain.Product, len(s.products)),
	}
	for id, it := range s.items {
		staged.items[id] = it
	}
	for id, p := range s.products {
		staged.products[id] = p
	}

	if err := mutate(ctx, staged); err != nil {
		return err
	}

	s.transaction = staged.transaction
	s.items = staged.items
	s.products = staged.products
	s.conditionRecords = append(s.conditionRecords, staged.records...)
	s.commits++
	return nil
}

func (s *fakeStore) item(id string) domain.RentalItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

func (s *fakeStore) product(id string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *fakeStore) currentTransaction() domain.RentalTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transaction
}

// fakeMutation applies the same guards as the SQL implementation against the
// staged copy.
type fakeMutation struct {
	transaction domain.RentalTransaction
	itemOrder   []string
	items       map[string]domain.RentalItem
	products    map[string]domain.Product
	records     []domain.ConditionRecord
}

func (m *fakeMutation) Transaction(_ context.Context) (*domain.RentalTransaction, error) {
	t := m.transaction
	return &t, nil
}

func (m *fakeMutation) Items(_ context.Context) ([]domain.RentalItem, error) {
	out := make([]domain.RentalItem, 0, len(m.itemOrder))
	for _, id := range m.itemOrder {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *fakeMutation) AddPickedUpQuantity(_ context.Context, itemID string, qty int) error {
	it, ok := m.items[itemID]
	if !ok || it.ReturnStatus == domain.ReturnStatusComplete || it.PickedUpQuantity+qty > it.Quantity {
		return fmt.Errorf("pickup of %d units on item %s: %w", qty, itemID, repository.ErrConflict)
	}
	it.PickedUpQuantity += qty
	m.items[itemID] = it
	return nil
}

func (m *fakeMutation) InsertConditionRecord(_ context.Context, rec *domain.ConditionRecord) error {
	m.records = append(m.records, *rec)
	return nil
}

func (m *fakeMutation) CompleteItemReturn(_ context.Context, itemID string, penaltyCents int64, conditionCount int) error {
	it, ok := m.items[itemID]
	if !ok || it.ReturnStatus == domain.ReturnStatusComplete {
		return fmt.Errorf("item %s return completion: %w", itemID, repository.ErrConflict)
	}
	it.ReturnStatus = domain.ReturnStatusComplete
	it.PenaltyCents = penaltyCents
	it.ConditionCount = conditionCount
	m.items[itemID] = it
	return nil
}

func (m *fakeMutation) AddProductStock(_ context.Context, productID string, qty int) error {
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, repository.ErrNotFound)
	}
	p.AvailableStock += qty
	m.products[productID] = p
	return nil
}

func (m *fakeMutation) AccruePenalty(_ context.Context, penaltyCents int64) error {
	if m.transaction.Status != domain.TransactionStatusActive {
		return fmt.Errorf("transaction %s penalty accrual: %w", m.transaction.ID, repository.ErrConflict)
	}
	m.transaction.AmountDueCents += penaltyCents
	return nil
}

func (m *fakeMutation) FinalizeReturn(_ context.Context, returnedAt time.Time, penaltyCents int64) error {
	switch m.transaction.Status {
	case domain.TransactionStatusActive:
	case domain.TransactionStatusReturned:
		return repository.ErrAlreadyReturned
	default:
		return fmt.Errorf("transaction %s is %s: %w", m.transaction.ID, m.transaction.Status, repository.ErrConflict)
	}
	m.transaction.Status = domain.TransactionStatusReturned
	m.transaction.ReturnedAt = &returnedAt
	m.transaction.AmountDueCents += penaltyCents
	return nil
}

// recordingSink collects audit events; err makes every Record call fail.
type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Record(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}
