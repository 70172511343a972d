package storage

import (
	"context"

	"budgetbot/internal/entity/expense"
)

// Storage is a per-user append-only ledger of expense records.
// Implementations keep users isolated from each other; within one user the
// guarantee is last full write wins.
type Storage interface {
	Append(ctx context.Context, userID int64, rec expense.Record) error
	ReadAll(ctx context.Context, userID int64) ([]expense.Record, error)
	DeleteLast(ctx context.Context, userID int64) error
	Clear(ctx context.Context, userID int64) error
}
