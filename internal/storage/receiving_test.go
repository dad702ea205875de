package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/model"
)

func TestCreateReceiptBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("generates a batch code", func(t *testing.T) {
		store := newTestStorage(t)

		batch, err := store.CreateReceiptBatch(ctx, &model.ReceiptBatch{Location: "DOCK-1"})
		require.NoError(t, err)
		assert.NotZero(t, batch.ID)
		assert.True(t, strings.HasPrefix(batch.BatchCode, "RB-"))
		assert.False(t, batch.ReceiptDate.IsZero())
	})

	t.Run("keeps a caller-supplied code", func(t *testing.T) {
		store := newTestStorage(t)

		batch, err := store.CreateReceiptBatch(ctx, &model.ReceiptBatch{
			Location:  "DOCK-1",
			BatchCode: "RB-CUSTOM-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "RB-CUSTOM-1", batch.BatchCode)
	})

	t.Run("requires a location", func(t *testing.T) {
		store := newTestStorage(t)
		_, err := store.CreateReceiptBatch(ctx, &model.ReceiptBatch{})
		require.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestCreateBatchItem(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	family, err := store.CreateFamily(ctx, &model.ProductFamily{Name: "Lenovo Thinkpad T490"})
	require.NoError(t, err)
	batch, err := store.CreateReceiptBatch(ctx, &model.ReceiptBatch{Location: "DOCK-1"})
	require.NoError(t, err)

	t.Run("derives total cost from unit cost", func(t *testing.T) {
		unitCost := 110.0
		item, err := store.CreateBatchItem(ctx, &model.BatchItem{
			BatchID:         batch.ID,
			ProductFamilyID: family.ID,
			Quantity:        4,
			UnitCost:        &unitCost,
		})
		require.NoError(t, err)
		require.NotNil(t, item.TotalCost)
		assert.InDelta(t, 440.0, *item.TotalCost, 0.001)
	})

	t.Run("no unit cost leaves totals nil", func(t *testing.T) {
		item, err := store.CreateBatchItem(ctx, &model.BatchItem{
			BatchID:         batch.ID,
			ProductFamilyID: family.ID,
			Quantity:        2,
		})
		require.NoError(t, err)
		assert.Nil(t, item.TotalCost)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := store.CreateBatchItem(ctx, &model.BatchItem{
			BatchID:         batch.ID,
			ProductFamilyID: family.ID,
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestUpdateBatchTotals(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	family, err := store.CreateFamily(ctx, &model.ProductFamily{Name: "Lenovo Thinkpad T490"})
	require.NoError(t, err)
	batch, err := store.CreateReceiptBatch(ctx, &model.ReceiptBatch{Location: "DOCK-1"})
	require.NoError(t, err)

	costA, costB := 100.0, 50.0
	_, err = store.CreateBatchItem(ctx, &model.BatchItem{
		BatchID: batch.ID, ProductFamilyID: family.ID, Quantity: 3, UnitCost: &costA,
	})
	require.NoError(t, err)
	_, err = store.CreateBatchItem(ctx, &model.BatchItem{
		BatchID: batch.ID, ProductFamilyID: family.ID, Quantity: 2, UnitCost: &costB,
	})
	require.NoError(t, err)

	require.NoError(t, store.UpdateBatchTotals(ctx, batch.ID))

	var itemCount, totalQuantity int
	var totalCost float64
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT item_count, total_quantity, total_cost FROM receipt_batches WHERE id = ?`,
		batch.ID).Scan(&itemCount, &totalQuantity, &totalCost))
	assert.Equal(t, 2, itemCount)
	assert.Equal(t, 5, totalQuantity)
	assert.InDelta(t, 400.0, totalCost, 0.001)
}

func TestSaveInventoryReceipt(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	family, err := store.CreateFamily(ctx, &model.ProductFamily{Name: "Lenovo Thinkpad T490"})
	require.NoError(t, err)

	receive := func(quantity int) {
		t.Helper()
		require.NoError(t, store.SaveInventoryReceipt(ctx, &model.InventoryReceipt{
			ProductFamilyID: family.ID,
			Location:        "DOCK-1",
			Quantity:        quantity,
			Reason:          "manifest receipt",
			Reference:       "RB-TEST-1",
		}))
	}
	receive(5)
	receive(3)

	var level int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT quantity FROM stock_levels WHERE product_family_id = ? AND location = ?`,
		family.ID, "DOCK-1").Scan(&level))
	assert.Equal(t, 8, level, "stock level accumulates across receipts")

	var movements int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory_history WHERE product_family_id = ?`,
		family.ID).Scan(&movements))
	assert.Equal(t, 2, movements, "every receipt leaves an audit row")
}
