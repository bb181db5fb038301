package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/device"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/persistence/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestOrderRepository_ShouldPersistAndReplaceLiveOrder(t *testing.T) {
	repo := sqlite.NewOrderRepository(setupTestDB(t))
	createdAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	_, err := repo.Current()
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	o := order.NewPaymentOrder(
		order.Draft{Amount: "12.50", Currency: currency.EUR, Notes: "Lunch ☕"},
		order.Created{Identifier: "abc123", WebURL: "https://pay/abc123"},
		createdAt,
	)
	require.NoError(t, repo.Save(o))

	got, err := repo.Current()
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Identifier)
	assert.Equal(t, "Lunch ☕", got.Notes)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.True(t, createdAt.Equal(got.CreatedAt))

	o.Complete(order.Completion{Amount: "12.50", Currency: currency.EUR})
	require.NoError(t, repo.Save(o))

	got, err = repo.Current()
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)
	assert.Equal(t, currency.EUR, got.FinalCurrency)
}

func TestOrderRepository_SaveNewOrderReplacesPrevious(t *testing.T) {
	repo := sqlite.NewOrderRepository(setupTestDB(t))

	for _, id := range []string{"first", "second"} {
		require.NoError(t, repo.Save(order.NewPaymentOrder(
			order.Draft{Amount: "1.00", Currency: currency.USD},
			order.Created{Identifier: id, WebURL: "https://pay/" + id},
			time.Now(),
		)))
	}

	got, err := repo.Current()
	require.NoError(t, err)
	assert.Equal(t, "second", got.Identifier)
}

func TestOrderRepository_Delete(t *testing.T) {
	repo := sqlite.NewOrderRepository(setupTestDB(t))
	require.NoError(t, repo.Save(order.NewPaymentOrder(
		order.Draft{Amount: "1.00", Currency: currency.GBP},
		order.Created{Identifier: "abc123", WebURL: "https://pay/abc123"},
		time.Now(),
	)))

	assert.ErrorIs(t, repo.Delete("other"), order.ErrOrderNotFound)
	require.NoError(t, repo.Delete("abc123"))

	_, err := repo.Current()
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestDeviceRepository_ShouldKeepOneIdentifier(t *testing.T) {
	repo := sqlite.NewDeviceRepository(setupTestDB(t))

	_, err := repo.Get()
	require.ErrorIs(t, err, device.ErrDeviceNotFound)

	require.NoError(t, repo.Save("device-1"))
	require.NoError(t, repo.Save("device-2"))

	id, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, "device-2", id)
}
