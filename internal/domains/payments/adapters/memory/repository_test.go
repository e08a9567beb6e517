package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/payments/ports"
)

func TestSave_RequiresID(t *testing.T) {
	_, err := NewRepository().Save(context.Background(), domain.Snapshot{})
	require.Error(t, err)
}

func TestListByOrder_KeepsInsertionOrder(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	first := domain.Snapshot{ID: uuid.New(), OrderID: 7, Method: domain.MethodCredit, Amount: decimal.NewFromInt(20), Status: domain.StatusFailed}
	other := domain.Snapshot{ID: uuid.New(), OrderID: 8, Method: domain.MethodCash, Amount: decimal.NewFromInt(5), Status: domain.StatusCompleted}
	second := domain.Snapshot{ID: uuid.New(), OrderID: 7, Method: domain.MethodCash, Amount: decimal.NewFromInt(20), Status: domain.StatusCompleted}
	for _, p := range []domain.Snapshot{first, other, second} {
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)
	}

	// Updating an attempt keeps its position.
	first.FailureReason = "card expired"
	_, err := repo.Save(ctx, first)
	require.NoError(t, err)

	list, err := repo.ListByOrder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, "card expired", list[0].FailureReason)
	require.Equal(t, second.ID, list[1].ID)

	none, err := repo.ListByOrder(ctx, 99)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetByID(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	saved, err := repo.Save(ctx, domain.Snapshot{ID: uuid.New(), OrderID: 1, Method: domain.MethodCheck})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MethodCheck, got.Method)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, ports.ErrNotFound)
}
