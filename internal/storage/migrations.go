package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the
// application expects. If the database cannot be migrated to this
// version, it's a fatal error.
const ExpectedSchemaVersion = 5

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Manifest pipeline core schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS manifests (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					file_type TEXT NOT NULL DEFAULT 'csv',
					has_header BOOLEAN NOT NULL DEFAULT 1,
					reference TEXT,
					notes TEXT,
					template_id INTEGER,
					batch_id INTEGER,
					row_count INTEGER NOT NULL DEFAULT 0,
					processed_count INTEGER NOT NULL DEFAULT 0,
					error_count INTEGER NOT NULL DEFAULT 0,
					uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME
				)`,
				`CREATE INDEX idx_manifests_status ON manifests(status)`,

				`CREATE TABLE IF NOT EXISTS manifest_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					manifest_id INTEGER NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
					row_number INTEGER NOT NULL,
					raw_data TEXT NOT NULL,
					mapped_data TEXT,
					status TEXT NOT NULL DEFAULT 'pending',
					barcode TEXT,
					serial TEXT,
					manufacturer TEXT,
					model TEXT,
					processor TEXT,
					cpu TEXT,
					memory TEXT,
					storage TEXT,
					battery TEXT,
					has_battery BOOLEAN NOT NULL DEFAULT 0,
					condition_grade TEXT,
					condition_notes TEXT,
					unit_price REAL,
					group_id INTEGER,
					family_mapped_group_id INTEGER,
					batch_item_id INTEGER,
					error_message TEXT,
					processed_at DATETIME,
					UNIQUE(manifest_id, row_number)
				)`,
				`CREATE INDEX idx_manifest_items_manifest ON manifest_items(manifest_id)`,
				`CREATE INDEX idx_manifest_items_status ON manifest_items(manifest_id, status)`,
				`CREATE INDEX idx_manifest_items_group ON manifest_items(group_id)`,

				`CREATE TABLE IF NOT EXISTS manifest_groups (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					manifest_id INTEGER NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
					group_key TEXT NOT NULL,
					quantity INTEGER NOT NULL DEFAULT 0,
					manufacturer TEXT,
					model TEXT,
					product_family_id INTEGER,
					batch_item_id INTEGER,
					metadata TEXT NOT NULL DEFAULT '{}',
					UNIQUE(manifest_id, group_key)
				)`,
				`CREATE INDEX idx_manifest_groups_mfg_model ON manifest_groups(manufacturer, model)`,
				`CREATE INDEX idx_manifest_groups_family ON manifest_groups(product_family_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Mapping templates",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS manifest_templates (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					description TEXT,
					headers TEXT,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS manifest_column_mappings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					template_id INTEGER NOT NULL REFERENCES manifest_templates(id) ON DELETE CASCADE,
					source_column TEXT NOT NULL,
					target_field TEXT NOT NULL,
					group_key TEXT,
					is_required BOOLEAN NOT NULL DEFAULT 0,
					processing_order INTEGER NOT NULL DEFAULT 0,
					UNIQUE(template_id, source_column)
				)`,
				`CREATE INDEX idx_column_mappings_template ON manifest_column_mappings(template_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Product family catalog",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				// Unique name backs the create-if-absent race handling:
				// concurrent creators fall back to a lookup on conflict.
				`CREATE TABLE IF NOT EXISTS product_families (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					sku TEXT,
					description TEXT,
					manufacturer TEXT,
					model TEXT,
					attributes TEXT,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_product_families_name ON product_families(name COLLATE NOCASE)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Receiving batches and inventory ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS receipt_batches (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					batch_code TEXT UNIQUE NOT NULL,
					reference TEXT,
					location TEXT NOT NULL,
					notes TEXT,
					created_by TEXT,
					item_count INTEGER NOT NULL DEFAULT 0,
					total_quantity INTEGER NOT NULL DEFAULT 0,
					total_cost REAL NOT NULL DEFAULT 0,
					receipt_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS batch_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					batch_id INTEGER NOT NULL REFERENCES receipt_batches(id) ON DELETE CASCADE,
					product_family_id INTEGER NOT NULL REFERENCES product_families(id),
					quantity INTEGER NOT NULL,
					unit_cost REAL,
					total_cost REAL,
					notes TEXT,
					requires_unit_qc BOOLEAN NOT NULL DEFAULT 0,
					source_type TEXT,
					source_id TEXT
				)`,
				`CREATE INDEX idx_batch_items_batch ON batch_items(batch_id)`,

				`CREATE TABLE IF NOT EXISTS inventory_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product_family_id INTEGER NOT NULL REFERENCES product_families(id),
					location TEXT NOT NULL,
					quantity INTEGER NOT NULL,
					reason TEXT,
					reference TEXT,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_inventory_history_family ON inventory_history(product_family_id)`,

				`CREATE TABLE IF NOT EXISTS stock_levels (
					product_family_id INTEGER NOT NULL REFERENCES product_families(id),
					location TEXT NOT NULL,
					quantity INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (product_family_id, location)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     5,
		Description: "Index denormalized family mapping reference",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`CREATE INDEX idx_manifest_items_family_mapped ON manifest_items(family_mapped_group_id)`); err != nil {
				return fmt.Errorf("failed to create family mapping index: %w", err)
			}
			slog.Info("Indexed family_mapped_group_id on manifest items")
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
