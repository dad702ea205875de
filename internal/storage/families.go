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
)

const familyColumns = `id, name, sku, description, manufacturer, model, attributes, created_at`

func scanFamily(row interface{ Scan(...any) error }) (*model.ProductFamily, error) {
	var f model.ProductFamily
	var sku, description, manufacturer, mdl, attributes sql.NullString
	err := row.Scan(&f.ID, &f.Name, &sku, &description, &manufacturer, &mdl, &attributes, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.SKU = sku.String
	f.Description = description.String
	f.Manufacturer = manufacturer.String
	f.Model = mdl.String
	if attributes.Valid && attributes.String != "" {
		if err := json.Unmarshal([]byte(attributes.String), &f.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode family attributes: %w", err)
		}
	}
	return &f, nil
}

// FindFamilyByName looks up a product family by name, case-insensitively.
// Returns nil when no family matches.
func (s *SQLiteStorage) FindFamilyByName(ctx context.Context, name string) (*model.ProductFamily, error) {
	return findFamilyByName(ctx, s.db, name)
}

func (t *sqliteTransaction) FindFamilyByName(ctx context.Context, name string) (*model.ProductFamily, error) {
	return findFamilyByName(ctx, t.tx, name)
}

func findFamilyByName(ctx context.Context, db dbtx, name string) (*model.ProductFamily, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "family name"); err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT `+familyColumns+` FROM product_families WHERE name = ? COLLATE NOCASE`, name)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product family: %w", err)
	}
	return f, nil
}

// ListFamilies returns every product family, sorted by name.
func (s *SQLiteStorage) ListFamilies(ctx context.Context) ([]model.ProductFamily, error) {
	return listFamilies(ctx, s.db)
}

func (t *sqliteTransaction) ListFamilies(ctx context.Context) ([]model.ProductFamily, error) {
	return listFamilies(ctx, t.tx)
}

func listFamilies(ctx context.Context, db dbtx) ([]model.ProductFamily, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+familyColumns+` FROM product_families ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product families: %w", err)
	}
	defer rows.Close()

	var families []model.ProductFamily
	for rows.Next() {
		f, scanErr := scanFamily(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan product family: %w", scanErr)
		}
		families = append(families, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product families: %w", err)
	}
	return families, nil
}

// CreateFamily inserts a new product family. If another writer created
// a family with the same name first, the existing record is returned
// instead of an error.
func (s *SQLiteStorage) CreateFamily(ctx context.Context, family *model.ProductFamily) (*model.ProductFamily, error) {
	return createFamily(ctx, s.db, family)
}

func (t *sqliteTransaction) CreateFamily(ctx context.Context, family *model.ProductFamily) (*model.ProductFamily, error) {
	return createFamily(ctx, t.tx, family)
}

func createFamily(ctx context.Context, db dbtx, family *model.ProductFamily) (*model.ProductFamily, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if family == nil {
		return nil, fmt.Errorf("%w: family", ErrNilParameter)
	}
	if err := validateString(family.Name, "family name"); err != nil {
		return nil, err
	}

	var attributes any
	if family.Attributes != nil {
		encoded, err := json.Marshal(family.Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode family attributes: %w", err)
		}
		attributes = string(encoded)
	}
	now := time.Now()

	result, err := db.ExecContext(ctx, `
		INSERT INTO product_families (name, sku, description, manufacturer, model, attributes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		family.Name, family.SKU, family.Description, family.Manufacturer, family.Model, attributes, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			existing, findErr := findFamilyByName(ctx, db, family.Name)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				slog.Debug("family already exists, reusing", "name", family.Name, "id", existing.ID)
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create product family: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get family ID: %w", err)
	}

	created := *family
	created.ID = id
	created.CreatedAt = now

	slog.Info("created product family", "id", id, "name", family.Name)
	return &created, nil
}
