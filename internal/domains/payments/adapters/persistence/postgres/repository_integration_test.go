//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/payments/ports"
	"github.com/Apurer/restaurant-orders/internal/platform/migrations"
)

func setupPaymentsPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("payments_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func processedCash(t *testing.T, orderID int64, tendered string) domain.Snapshot {
	t.Helper()
	payment, err := domain.NewFactory().Create("cash", decimal.RequireFromString("12.40"))
	require.NoError(t, err)
	tender := decimal.RequireFromString(tendered)
	require.NoError(t, domain.ApplyDetails(payment, domain.Details{AmountTendered: &tender}))
	payment.BindOrder(orderID)
	require.NoError(t, payment.Process())
	return payment.Snapshot()
}

func TestRepository_SaveAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPaymentsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	snapshot := processedCash(t, 7, "20")
	saved, err := repo.Save(ctx, snapshot)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, saved.ID)

	fetched, err := repo.GetByID(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, fetched.Status)
	assert.Equal(t, domain.MethodCash, fetched.Method)
	assert.True(t, decimal.RequireFromString("7.60").Equal(fetched.ChangeDue))
	assert.False(t, fetched.ProcessedAt.IsZero())
}

func TestRepository_ListByOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPaymentsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Save(ctx, processedCash(t, 7, "5"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, processedCash(t, 7, "20"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, processedCash(t, 8, "20"))
	require.NoError(t, err)

	list, err := repo.ListByOrder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.StatusFailed, list[0].Status)
	assert.Equal(t, domain.StatusCompleted, list[1].Status)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
