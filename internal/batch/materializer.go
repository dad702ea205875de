// Package batch turns classified manifest groups into receiving batches
// and inventory receipts.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// MaterializeOptions tune batch creation for one manifest.
type MaterializeOptions struct {
	// UnitCostOverride replaces the per-group average price on every
	// batch item when set.
	UnitCostOverride *float64
	Reference        string
	Notes            string
	CreatedBy        string
}

// Materializer converts a fully classified manifest into one receiving
// batch: one batch item per family-resolved group, stock receipts in
// the inventory ledger, and the manifest closed out as completed.
type Materializer struct {
	storage service.Storage
}

// New creates a Materializer backed by the given storage.
func New(storage service.Storage) *Materializer {
	return &Materializer{storage: storage}
}

// CreateBatch materializes the manifest's groups. Groups without a
// resolved family are skipped with a warning; everything that does
// materialize commits in a single transaction, so a storage failure
// leaves the manifest untouched.
func (m *Materializer) CreateBatch(ctx context.Context, manifest *model.Manifest, location string, opts MaterializeOptions) (*service.MaterializeResult, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if manifest.Status != model.ManifestValidation {
		return nil, fmt.Errorf("manifest %d is %s, expected validation", manifest.ID, manifest.Status)
	}
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("receiving location is required")
	}

	groups, err := m.storage.GetGroups(ctx, manifest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest groups: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("manifest %d has no groups to materialize", manifest.ID)
	}

	eligible := make([]*model.Group, 0, len(groups))
	result := &service.MaterializeResult{}
	for i := range groups {
		if groups[i].ProductFamilyID == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("group %q (%d items) has no product family, skipped", groups[i].DisplayName(), groups[i].Quantity))
			continue
		}
		eligible = append(eligible, &groups[i])
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("manifest %d has no family-resolved groups to materialize", manifest.ID)
	}

	tx, err := m.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	reference := opts.Reference
	if reference == "" {
		reference = manifest.Reference
	}
	batch, err := tx.CreateReceiptBatch(ctx, &model.ReceiptBatch{
		Reference: reference,
		Location:  location,
		Notes:     opts.Notes,
		CreatedBy: opts.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	for _, group := range eligible {
		if _, itemErr := m.materializeGroup(ctx, tx, manifest, batch, group, opts); itemErr != nil {
			return nil, itemErr
		}
		result.ItemsCreated++
	}

	if err := tx.UpdateBatchTotals(ctx, batch.ID); err != nil {
		return nil, err
	}
	if err := tx.CompleteManifest(ctx, manifest.ID, batch.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch materialization: %w", err)
	}

	manifest.Status = model.ManifestCompleted
	manifest.BatchID = &batch.ID
	result.Batch = batch

	slog.Info("materialized manifest batch",
		"manifest_id", manifest.ID,
		"batch_id", batch.ID,
		"batch_code", batch.BatchCode,
		"batch_items", result.ItemsCreated,
		"skipped_groups", len(result.Warnings))
	return result, nil
}

func (m *Materializer) materializeGroup(ctx context.Context, tx service.Transaction, manifest *model.Manifest, batch *model.ReceiptBatch, group *model.Group, opts MaterializeOptions) (*model.BatchItem, error) {
	unitCost := opts.UnitCostOverride
	if unitCost == nil {
		unitCost = group.Metadata.AvgUnitPrice
	}

	item, err := tx.CreateBatchItem(ctx, &model.BatchItem{
		BatchID:         batch.ID,
		ProductFamilyID: *group.ProductFamilyID,
		Quantity:        group.Quantity,
		UnitCost:        unitCost,
		RequiresUnitQC:  requiresUnitQC(group),
		SourceType:      "manifest",
		SourceID:        fmt.Sprintf("%d", manifest.ID),
		Notes:           group.DisplayName(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create batch item for group %d: %w", group.ID, err)
	}

	if err := tx.SetGroupBatchItem(ctx, group.ID, item.ID); err != nil {
		return nil, err
	}
	if err := tx.MarkGroupItemsProcessed(ctx, group.ID, item.ID); err != nil {
		return nil, err
	}
	if err := tx.SaveInventoryReceipt(ctx, &model.InventoryReceipt{
		ProductFamilyID: *group.ProductFamilyID,
		Location:        batch.Location,
		Quantity:        group.Quantity,
		Reason:          "manifest receipt",
		Reference:       batch.BatchCode,
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// requiresUnitQC flags anything below grade A for per-unit inspection.
func requiresUnitQC(group *model.Group) bool {
	grade := strings.ToUpper(strings.TrimSpace(group.Metadata.Attributes["condition_grade"]))
	return grade != "A"
}
