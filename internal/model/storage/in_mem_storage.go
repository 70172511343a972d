package storage

import (
	"context"
	"sync"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/model/customerr"
)

// InMemStorage holds ledgers in memory only. Useful for tests and throwaway
// runs.
type InMemStorage struct {
	mu      sync.Mutex
	ledgers map[int64][]expense.Record
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{ledgers: make(map[int64][]expense.Record)}
}

func (s *InMemStorage) Append(_ context.Context, userID int64, rec expense.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgers[userID] = append(s.ledgers[userID], rec)
	return nil
}

func (s *InMemStorage) ReadAll(_ context.Context, userID int64) ([]expense.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]expense.Record, len(s.ledgers[userID]))
	copy(recs, s.ledgers[userID])
	return recs, nil
}

func (s *InMemStorage) DeleteLast(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.ledgers[userID]
	if len(recs) == 0 {
		return customerr.ErrEmptyLedger
	}
	s.ledgers[userID] = recs[:len(recs)-1]
	return nil
}

func (s *InMemStorage) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ledgers, userID)
	return nil
}
