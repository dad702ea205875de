package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/refurbd/palletflow/internal/model"
)

const groupColumns = `id, manifest_id, group_key, quantity, manufacturer, model,
	product_family_id, batch_item_id, metadata`

// DeleteGroups removes every group for a manifest. Item links are
// cleared separately so the two steps can share one transaction.
func (s *SQLiteStorage) DeleteGroups(ctx context.Context, manifestID int64) error {
	return deleteGroups(ctx, s.db, manifestID)
}

func (t *sqliteTransaction) DeleteGroups(ctx context.Context, manifestID int64) error {
	return deleteGroups(ctx, t.tx, manifestID)
}

func deleteGroups(ctx context.Context, db dbtx, manifestID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(manifestID, "manifest ID"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM manifest_groups WHERE manifest_id = ?`, manifestID); err != nil {
		return fmt.Errorf("failed to delete manifest groups: %w", err)
	}
	return nil
}

// SaveGroups inserts groups and returns them with assigned IDs, in the
// order given.
func (s *SQLiteStorage) SaveGroups(ctx context.Context, groups []model.Group) ([]model.Group, error) {
	return saveGroups(ctx, s.db, groups)
}

func (t *sqliteTransaction) SaveGroups(ctx context.Context, groups []model.Group) ([]model.Group, error) {
	return saveGroups(ctx, t.tx, groups)
}

func saveGroups(ctx context.Context, db dbtx, groups []model.Group) ([]model.Group, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateGroups(groups); err != nil {
		return nil, err
	}

	created := make([]model.Group, 0, len(groups))
	for i := range groups {
		metadata, err := json.Marshal(groups[i].Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode group metadata: %w", err)
		}

		result, err := db.ExecContext(ctx, `
			INSERT INTO manifest_groups (manifest_id, group_key, quantity, manufacturer, model, product_family_id, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			groups[i].ManifestID, groups[i].GroupKey, groups[i].Quantity,
			groups[i].Manufacturer, groups[i].Model, groups[i].ProductFamilyID, string(metadata))
		if err != nil {
			return nil, fmt.Errorf("failed to insert group %s: %w", groups[i].GroupKey, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get group ID: %w", err)
		}

		group := groups[i]
		group.ID = id
		created = append(created, group)
	}

	slog.Debug("saved manifest groups", "count", len(created))
	return created, nil
}

func scanGroup(row interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	var manufacturer, mdl sql.NullString
	var metadata string
	err := row.Scan(&g.ID, &g.ManifestID, &g.GroupKey, &g.Quantity,
		&manufacturer, &mdl, &g.ProductFamilyID, &g.BatchItemID, &metadata)
	if err != nil {
		return nil, err
	}
	g.Manufacturer = manufacturer.String
	g.Model = mdl.String
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &g.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode group metadata: %w", err)
		}
	}
	return &g, nil
}

// GetGroups returns a manifest's groups, largest first.
func (s *SQLiteStorage) GetGroups(ctx context.Context, manifestID int64) ([]model.Group, error) {
	return getGroups(ctx, s.db, manifestID)
}

func (t *sqliteTransaction) GetGroups(ctx context.Context, manifestID int64) ([]model.Group, error) {
	return getGroups(ctx, t.tx, manifestID)
}

func getGroups(ctx context.Context, db dbtx, manifestID int64) ([]model.Group, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(manifestID, "manifest ID"); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM manifest_groups WHERE manifest_id = ? ORDER BY quantity DESC, id`,
		manifestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest groups: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, scanErr := scanGroup(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan manifest group: %w", scanErr)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manifest groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns one group by ID, or nil when it does not exist.
func (s *SQLiteStorage) GetGroup(ctx context.Context, id int64) (*model.Group, error) {
	return getGroup(ctx, s.db, id)
}

func (t *sqliteTransaction) GetGroup(ctx context.Context, id int64) (*model.Group, error) {
	return getGroup(ctx, t.tx, id)
}

func getGroup(ctx context.Context, db dbtx, id int64) (*model.Group, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM manifest_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest group: %w", err)
	}
	return g, nil
}

// SetGroupFamily links or unlinks a group's resolved product family.
func (s *SQLiteStorage) SetGroupFamily(ctx context.Context, groupID int64, familyID *int64) error {
	return setGroupFamily(ctx, s.db, groupID, familyID)
}

func (t *sqliteTransaction) SetGroupFamily(ctx context.Context, groupID int64, familyID *int64) error {
	return setGroupFamily(ctx, t.tx, groupID, familyID)
}

func setGroupFamily(ctx context.Context, db dbtx, groupID int64, familyID *int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(groupID, "group ID"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifest_groups SET product_family_id = ? WHERE id = ?`, familyID, groupID); err != nil {
		return fmt.Errorf("failed to set group family: %w", err)
	}
	return nil
}

// SetGroupBatchItem links a group to its materialized batch item.
func (s *SQLiteStorage) SetGroupBatchItem(ctx context.Context, groupID, batchItemID int64) error {
	return setGroupBatchItem(ctx, s.db, groupID, batchItemID)
}

func (t *sqliteTransaction) SetGroupBatchItem(ctx context.Context, groupID, batchItemID int64) error {
	return setGroupBatchItem(ctx, t.tx, groupID, batchItemID)
}

func setGroupBatchItem(ctx context.Context, db dbtx, groupID, batchItemID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifest_groups SET batch_item_id = ? WHERE id = ?`, batchItemID, groupID); err != nil {
		return fmt.Errorf("failed to set group batch item: %w", err)
	}
	return nil
}
