package storage

import (
	"context"
	"fmt"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// ReceivingService exposes batch creation over any storage backend,
// including a transaction.
type ReceivingService struct {
	store service.Storage
}

// NewReceiving wraps a storage backend as a receiving service.
func NewReceiving(store service.Storage) *ReceivingService {
	return &ReceivingService{store: store}
}

var _ service.Receiving = (*ReceivingService)(nil)

// CreateBatch opens a new receiving batch at a location.
func (r *ReceivingService) CreateBatch(ctx context.Context, reference, location, createdBy string) (*model.ReceiptBatch, error) {
	return r.store.CreateReceiptBatch(ctx, &model.ReceiptBatch{
		Reference: reference,
		Location:  location,
		CreatedBy: createdBy,
	})
}

// CreateBatchItem adds a line to a batch and refreshes its totals.
func (r *ReceivingService) CreateBatchItem(ctx context.Context, item *model.BatchItem) (*model.BatchItem, error) {
	created, err := r.store.CreateBatchItem(ctx, item)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpdateBatchTotals(ctx, item.BatchID); err != nil {
		return nil, err
	}
	return created, nil
}

// LedgerService records stock movements over any storage backend.
type LedgerService struct {
	store service.Storage
}

// NewLedger wraps a storage backend as an inventory ledger.
func NewLedger(store service.Storage) *LedgerService {
	return &LedgerService{store: store}
}

var _ service.InventoryLedger = (*LedgerService)(nil)

// Receive records a positive stock movement with its audit trail row.
func (l *LedgerService) Receive(ctx context.Context, familyID int64, location string, quantity int, reason, reference string) (*model.InventoryReceipt, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: receipt quantity must be positive", ErrInvalidRequest)
	}
	receipt := &model.InventoryReceipt{
		ProductFamilyID: familyID,
		Location:        location,
		Quantity:        quantity,
		Reason:          reason,
		Reference:       reference,
	}
	if err := l.store.SaveInventoryReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
