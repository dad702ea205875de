package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

const itemColumns = `id, manifest_id, row_number, raw_data, mapped_data, status,
	barcode, serial, manufacturer, model, processor, cpu, memory, storage, battery,
	has_battery, condition_grade, condition_notes, unit_price,
	group_id, family_mapped_group_id, batch_item_id, error_message, processed_at`

// SaveItems bulk-inserts manifest items. One multi-row statement per
// chunk keeps large manifests from paying per-row write costs.
func (s *SQLiteStorage) SaveItems(ctx context.Context, items []model.Item) error {
	return saveItems(ctx, s.db, items)
}

func (t *sqliteTransaction) SaveItems(ctx context.Context, items []model.Item) error {
	return saveItems(ctx, t.tx, items)
}

const itemInsertChunk = 200

func saveItems(ctx context.Context, db dbtx, items []model.Item) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateItems(items); err != nil {
		return err
	}

	for start := 0; start < len(items); start += itemInsertChunk {
		end := start + itemInsertChunk
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*5)
		for i := range chunk {
			raw, err := json.Marshal(chunk[i].RawData)
			if err != nil {
				return fmt.Errorf("failed to encode raw data for row %d: %w", chunk[i].RowNumber, err)
			}
			status := chunk[i].Status
			if status == "" {
				status = model.ItemPending
			}
			placeholders = append(placeholders, "(?, ?, ?, ?)")
			args = append(args, chunk[i].ManifestID, chunk[i].RowNumber, string(raw), status)
		}

		query := `INSERT INTO manifest_items (manifest_id, row_number, raw_data, status) VALUES ` +
			strings.Join(placeholders, ", ")
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to bulk insert manifest items: %w", err)
		}
	}

	slog.Debug("saved manifest items", "count", len(items))
	return nil
}

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	var i model.Item
	var rawData string
	var mappedData, barcode, serial, manufacturer, mdl, processor, cpu sql.NullString
	var memory, storageText, battery, conditionGrade, conditionNotes, errorMessage sql.NullString
	var unitPrice sql.NullFloat64
	var processedAt sql.NullTime

	err := row.Scan(&i.ID, &i.ManifestID, &i.RowNumber, &rawData, &mappedData, &i.Status,
		&barcode, &serial, &manufacturer, &mdl, &processor, &cpu, &memory, &storageText, &battery,
		&i.HasBattery, &conditionGrade, &conditionNotes, &unitPrice,
		&i.GroupID, &i.FamilyMappedGroupID, &i.BatchItemID, &errorMessage, &processedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rawData), &i.RawData); err != nil {
		return nil, fmt.Errorf("failed to decode raw data: %w", err)
	}
	if mappedData.Valid && mappedData.String != "" {
		if err := json.Unmarshal([]byte(mappedData.String), &i.MappedData); err != nil {
			return nil, fmt.Errorf("failed to decode mapped data: %w", err)
		}
	}
	i.Barcode = barcode.String
	i.Serial = serial.String
	i.Manufacturer = manufacturer.String
	i.Model = mdl.String
	i.Processor = processor.String
	i.CPU = cpu.String
	i.Memory = memory.String
	i.Storage = storageText.String
	i.Battery = battery.String
	i.ConditionGrade = conditionGrade.String
	i.ConditionNotes = conditionNotes.String
	i.ErrorMessage = errorMessage.String
	if unitPrice.Valid {
		i.UnitPrice = &unitPrice.Float64
	}
	if processedAt.Valid {
		i.ProcessedAt = &processedAt.Time
	}
	return &i, nil
}

// GetItems returns a manifest's items ordered by row number.
func (s *SQLiteStorage) GetItems(ctx context.Context, manifestID int64, filter service.ItemFilter) ([]model.Item, error) {
	return getItems(ctx, s.db, manifestID, filter)
}

func (t *sqliteTransaction) GetItems(ctx context.Context, manifestID int64, filter service.ItemFilter) ([]model.Item, error) {
	return getItems(ctx, t.tx, manifestID, filter)
}

func getItems(ctx context.Context, db dbtx, manifestID int64, filter service.ItemFilter) ([]model.Item, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(manifestID, "manifest ID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM manifest_items WHERE manifest_id = ?`
	args := []any{manifestID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.GroupID != nil {
		query += ` AND group_id = ?`
		args = append(args, *filter.GroupID)
	}
	query += ` ORDER BY row_number`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan manifest item: %w", scanErr)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manifest items: %w", err)
	}
	return items, nil
}

// GetItemByRow returns one item by its manifest-relative row number.
func (s *SQLiteStorage) GetItemByRow(ctx context.Context, manifestID int64, rowNumber int) (*model.Item, error) {
	return getItemByRow(ctx, s.db, manifestID, rowNumber)
}

func (t *sqliteTransaction) GetItemByRow(ctx context.Context, manifestID int64, rowNumber int) (*model.Item, error) {
	return getItemByRow(ctx, t.tx, manifestID, rowNumber)
}

func getItemByRow(ctx context.Context, db dbtx, manifestID int64, rowNumber int) (*model.Item, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM manifest_items WHERE manifest_id = ? AND row_number = ?`,
		manifestID, rowNumber)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest item: %w", err)
	}
	return item, nil
}

// UpdateItemMapping persists the mapped data, typed fields, status and
// error message produced by the mapping application service.
func (s *SQLiteStorage) UpdateItemMapping(ctx context.Context, item *model.Item) error {
	return updateItemMapping(ctx, s.db, item)
}

func (t *sqliteTransaction) UpdateItemMapping(ctx context.Context, item *model.Item) error {
	return updateItemMapping(ctx, t.tx, item)
}

func updateItemMapping(ctx context.Context, db dbtx, item *model.Item) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if err := validateID(item.ID, "item ID"); err != nil {
		return err
	}

	mapped, err := json.Marshal(item.MappedData)
	if err != nil {
		return fmt.Errorf("failed to encode mapped data: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE manifest_items SET
			mapped_data = ?, status = ?, barcode = ?, serial = ?, manufacturer = ?,
			model = ?, processor = ?, cpu = ?, memory = ?, storage = ?, battery = ?,
			has_battery = ?, condition_grade = ?, condition_notes = ?, unit_price = ?,
			error_message = ?, processed_at = ?
		WHERE id = ?`,
		string(mapped), item.Status, item.Barcode, item.Serial, item.Manufacturer,
		item.Model, item.Processor, item.CPU, item.Memory, item.Storage, item.Battery,
		item.HasBattery, item.ConditionGrade, item.ConditionNotes, item.UnitPrice,
		item.ErrorMessage, item.ProcessedAt, item.ID); err != nil {
		return fmt.Errorf("failed to update item mapping: %w", err)
	}
	return nil
}

// ClearItemGroupLinks detaches every item in a manifest from its group
// and from the denormalized family-mapped reference.
func (s *SQLiteStorage) ClearItemGroupLinks(ctx context.Context, manifestID int64) error {
	return clearItemGroupLinks(ctx, s.db, manifestID)
}

func (t *sqliteTransaction) ClearItemGroupLinks(ctx context.Context, manifestID int64) error {
	return clearItemGroupLinks(ctx, t.tx, manifestID)
}

func clearItemGroupLinks(ctx context.Context, db dbtx, manifestID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifest_items SET group_id = NULL, family_mapped_group_id = NULL WHERE manifest_id = ?`,
		manifestID); err != nil {
		return fmt.Errorf("failed to clear item group links: %w", err)
	}
	return nil
}

// AssignItemsToGroup bulk-links items to a group.
func (s *SQLiteStorage) AssignItemsToGroup(ctx context.Context, groupID int64, itemIDs []int64) error {
	return assignItemsToGroup(ctx, s.db, groupID, itemIDs)
}

func (t *sqliteTransaction) AssignItemsToGroup(ctx context.Context, groupID int64, itemIDs []int64) error {
	return assignItemsToGroup(ctx, t.tx, groupID, itemIDs)
}

func assignItemsToGroup(ctx context.Context, db dbtx, groupID int64, itemIDs []int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(itemIDs) == 0 {
		return fmt.Errorf("%w: itemIDs", ErrEmptySlice)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(itemIDs)), ", ")
	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, groupID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE manifest_items SET group_id = ? WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to assign items to group: %w", err)
	}
	return nil
}

// SetItemFamilyMappedGroup updates the denormalized family reference.
func (s *SQLiteStorage) SetItemFamilyMappedGroup(ctx context.Context, itemID int64, groupID *int64) error {
	return setItemFamilyMappedGroup(ctx, s.db, itemID, groupID)
}

func (t *sqliteTransaction) SetItemFamilyMappedGroup(ctx context.Context, itemID int64, groupID *int64) error {
	return setItemFamilyMappedGroup(ctx, t.tx, itemID, groupID)
}

func setItemFamilyMappedGroup(ctx context.Context, db dbtx, itemID int64, groupID *int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifest_items SET family_mapped_group_id = ? WHERE id = ?`, groupID, itemID); err != nil {
		return fmt.Errorf("failed to set family mapped group: %w", err)
	}
	return nil
}

// MarkGroupItemsProcessed stamps every item in a group as processed and
// links it to the materialized batch item.
func (s *SQLiteStorage) MarkGroupItemsProcessed(ctx context.Context, groupID, batchItemID int64) error {
	return markGroupItemsProcessed(ctx, s.db, groupID, batchItemID)
}

func (t *sqliteTransaction) MarkGroupItemsProcessed(ctx context.Context, groupID, batchItemID int64) error {
	return markGroupItemsProcessed(ctx, t.tx, groupID, batchItemID)
}

func markGroupItemsProcessed(ctx context.Context, db dbtx, groupID, batchItemID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifest_items SET status = ?, batch_item_id = ?, processed_at = ? WHERE group_id = ?`,
		model.ItemProcessed, batchItemID, time.Now(), groupID); err != nil {
		return fmt.Errorf("failed to mark group items processed: %w", err)
	}
	return nil
}
