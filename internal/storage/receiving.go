package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/refurbd/palletflow/internal/model"
)

// CreateReceiptBatch inserts a receiving batch. A batch code is
// generated when the caller does not supply one.
func (s *SQLiteStorage) CreateReceiptBatch(ctx context.Context, batch *model.ReceiptBatch) (*model.ReceiptBatch, error) {
	return createReceiptBatch(ctx, s.db, batch)
}

func (t *sqliteTransaction) CreateReceiptBatch(ctx context.Context, batch *model.ReceiptBatch) (*model.ReceiptBatch, error) {
	return createReceiptBatch(ctx, t.tx, batch)
}

func createReceiptBatch(ctx context.Context, db dbtx, batch *model.ReceiptBatch) (*model.ReceiptBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if err := validateString(batch.Location, "batch location"); err != nil {
		return nil, err
	}

	created := *batch
	if created.BatchCode == "" {
		created.BatchCode = fmt.Sprintf("RB-%s-%s",
			time.Now().Format("20060102"), uuid.NewString()[:8])
	}
	if created.ReceiptDate.IsZero() {
		created.ReceiptDate = time.Now()
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO receipt_batches (batch_code, reference, location, notes, created_by, receipt_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		created.BatchCode, created.Reference, created.Location,
		created.Notes, created.CreatedBy, created.ReceiptDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get batch ID: %w", err)
	}
	created.ID = id

	slog.Info("created receipt batch", "id", id, "code", created.BatchCode, "location", created.Location)
	return &created, nil
}

// CreateBatchItem inserts one line of a receiving batch.
func (s *SQLiteStorage) CreateBatchItem(ctx context.Context, item *model.BatchItem) (*model.BatchItem, error) {
	return createBatchItem(ctx, s.db, item)
}

func (t *sqliteTransaction) CreateBatchItem(ctx context.Context, item *model.BatchItem) (*model.BatchItem, error) {
	return createBatchItem(ctx, t.tx, item)
}

func createBatchItem(ctx context.Context, db dbtx, item *model.BatchItem) (*model.BatchItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: batch item", ErrNilParameter)
	}
	if err := validateID(item.BatchID, "batch ID"); err != nil {
		return nil, err
	}
	if err := validateID(item.ProductFamilyID, "product family ID"); err != nil {
		return nil, err
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	created := *item
	if created.UnitCost != nil && created.TotalCost == nil {
		total := *created.UnitCost * float64(created.Quantity)
		created.TotalCost = &total
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO batch_items (batch_id, product_family_id, quantity, unit_cost, total_cost, notes, requires_unit_qc, source_type, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.BatchID, created.ProductFamilyID, created.Quantity,
		created.UnitCost, created.TotalCost, created.Notes,
		created.RequiresUnitQC, created.SourceType, created.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get batch item ID: %w", err)
	}
	created.ID = id
	return &created, nil
}

// UpdateBatchTotals recomputes a batch's aggregate counters from its
// line items.
func (s *SQLiteStorage) UpdateBatchTotals(ctx context.Context, batchID int64) error {
	return updateBatchTotals(ctx, s.db, batchID)
}

func (t *sqliteTransaction) UpdateBatchTotals(ctx context.Context, batchID int64) error {
	return updateBatchTotals(ctx, t.tx, batchID)
}

func updateBatchTotals(ctx context.Context, db dbtx, batchID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(batchID, "batch ID"); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE receipt_batches SET
			item_count = (SELECT COUNT(*) FROM batch_items WHERE batch_id = ?),
			total_quantity = (SELECT COALESCE(SUM(quantity), 0) FROM batch_items WHERE batch_id = ?),
			total_cost = (SELECT COALESCE(SUM(total_cost), 0) FROM batch_items WHERE batch_id = ?)
		WHERE id = ?`,
		batchID, batchID, batchID, batchID); err != nil {
		return fmt.Errorf("failed to update batch totals: %w", err)
	}
	return nil
}

// SaveInventoryReceipt records a stock movement and bumps the on-hand
// level for the family at that location.
func (s *SQLiteStorage) SaveInventoryReceipt(ctx context.Context, receipt *model.InventoryReceipt) error {
	return saveInventoryReceipt(ctx, s.db, receipt)
}

func (t *sqliteTransaction) SaveInventoryReceipt(ctx context.Context, receipt *model.InventoryReceipt) error {
	return saveInventoryReceipt(ctx, t.tx, receipt)
}

func saveInventoryReceipt(ctx context.Context, db dbtx, receipt *model.InventoryReceipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if receipt == nil {
		return fmt.Errorf("%w: receipt", ErrNilParameter)
	}
	if err := validateID(receipt.ProductFamilyID, "product family ID"); err != nil {
		return err
	}
	if err := validateString(receipt.Location, "location"); err != nil {
		return err
	}

	now := time.Now()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO inventory_history (product_family_id, location, quantity, reason, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		receipt.ProductFamilyID, receipt.Location, receipt.Quantity,
		receipt.Reason, receipt.Reference, now); err != nil {
		return fmt.Errorf("failed to record inventory movement: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO stock_levels (product_family_id, location, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(product_family_id, location) DO UPDATE SET quantity = quantity + excluded.quantity`,
		receipt.ProductFamilyID, receipt.Location, receipt.Quantity); err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}

	receipt.CreatedAt = now
	return nil
}
