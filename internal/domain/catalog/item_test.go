package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

func createTestItem(t *testing.T, stock int64) *Item {
	t.Helper()
	item, err := NewItem(uuid.New(), "Road bike", "Barely used", "sports",
		valueobject.NewMoneyNGNFromFloat(150000), stock)
	require.NoError(t, err)
	return item
}

func TestNewItem(t *testing.T) {
	t.Run("creates active listing with expiry", func(t *testing.T) {
		item := createTestItem(t, 3)
		assert.Equal(t, ItemStatusActive, item.Status)
		assert.True(t, item.IsOrderable())
		assert.WithinDuration(t, time.Now().Add(DefaultListingTTL), item.ExpiresAt, time.Minute)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := NewItem(uuid.New(), "", "", "misc", valueobject.NewMoneyNGNFromFloat(10), 1)
		assert.Error(t, err)
	})

	t.Run("rejects zero stock", func(t *testing.T) {
		_, err := NewItem(uuid.New(), "thing", "", "misc", valueobject.NewMoneyNGNFromFloat(10), 0)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		_, err := NewItem(uuid.New(), "thing", "", "misc", valueobject.ZeroNGN(), 1)
		assert.Error(t, err)
	})
}

func TestItemDecrementStock(t *testing.T) {
	t.Run("reduces stock", func(t *testing.T) {
		item := createTestItem(t, 5)
		require.NoError(t, item.DecrementStock(2))
		assert.Equal(t, int64(3), item.Stock)
		assert.Equal(t, ItemStatusActive, item.Status)
	})

	t.Run("marks sold at zero", func(t *testing.T) {
		item := createTestItem(t, 2)
		require.NoError(t, item.DecrementStock(2))
		assert.Equal(t, int64(0), item.Stock)
		assert.Equal(t, ItemStatusSold, item.Status)
		assert.False(t, item.IsOrderable())
	})

	t.Run("rejects quantity above stock", func(t *testing.T) {
		item := createTestItem(t, 1)
		err := item.DecrementStock(2)
		assert.Equal(t, shared.ErrQuantityExceedsStock, err)
		assert.Equal(t, int64(1), item.Stock)
	})
}

func TestItemLifecycle(t *testing.T) {
	t.Run("seller deactivates and reactivates", func(t *testing.T) {
		item := createTestItem(t, 1)
		require.NoError(t, item.Deactivate(item.SellerID))
		assert.Equal(t, ItemStatusInactive, item.Status)
		assert.False(t, item.IsOrderable())

		require.NoError(t, item.Reactivate(item.SellerID))
		assert.Equal(t, ItemStatusActive, item.Status)
		assert.True(t, item.IsOrderable())
	})

	t.Run("non-seller cannot manage the listing", func(t *testing.T) {
		item := createTestItem(t, 1)
		assert.Equal(t, shared.ErrForbidden, item.Deactivate(uuid.New()))
	})

	t.Run("expired listing is not orderable", func(t *testing.T) {
		item := createTestItem(t, 1)
		item.ExpiresAt = time.Now().Add(-time.Hour)
		assert.True(t, item.IsExpired())
		assert.False(t, item.IsOrderable())
	})

	t.Run("sweep marks live listing expired", func(t *testing.T) {
		item := createTestItem(t, 1)
		item.ExpiresAt = time.Now().Add(-time.Hour)
		require.NoError(t, item.MarkExpired())
		assert.Equal(t, ItemStatusExpired, item.Status)
	})

	t.Run("reactivation renews expiry", func(t *testing.T) {
		item := createTestItem(t, 1)
		item.ExpiresAt = time.Now().Add(-time.Hour)
		require.NoError(t, item.MarkExpired())
		require.NoError(t, item.Reactivate(item.SellerID))
		assert.False(t, item.IsExpired())
	})
}
