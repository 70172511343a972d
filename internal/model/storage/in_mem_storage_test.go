package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/model/customerr"
)

func TestInMemStorage_Contract(t *testing.T) {
	ctx := context.Background()
	s := NewInMemStorage()

	a := expense.Record{Date: "01.01.2024", Amount: 1, Category: "Various", Description: "a"}
	b := expense.Record{Date: "02.01.2024", Amount: 2, Category: "Various", Description: "b"}
	require.NoError(t, s.Append(ctx, 1, a))
	require.NoError(t, s.Append(ctx, 1, b))

	recs, err := s.ReadAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []expense.Record{a, b}, recs)

	require.NoError(t, s.DeleteLast(ctx, 1))
	recs, err = s.ReadAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []expense.Record{a}, recs)

	require.NoError(t, s.Clear(ctx, 1))
	assert.ErrorIs(t, s.DeleteLast(ctx, 1), customerr.ErrEmptyLedger)

	recs, err = s.ReadAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
