// Package testutil provides shared fixtures for tests that need a real
// database.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
	"github.com/refurbd/palletflow/internal/storage"
)

// TestDB is an in-memory database with its migrations applied.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database. Cleanup is
// registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedFamilies creates product families by name, failing the test on
// error.
func (db *TestDB) SeedFamilies(names ...string) []model.ProductFamily {
	db.t.Helper()
	ctx := context.Background()

	families := make([]model.ProductFamily, 0, len(names))
	for _, name := range names {
		created, err := db.Storage.CreateFamily(ctx, &model.ProductFamily{Name: name})
		if err != nil {
			db.t.Fatalf("failed to seed family %q: %v", name, err)
		}
		families = append(families, *created)
	}
	return families
}

// SeedManifest creates a manifest in the given status with mapped items
// built from the provided rows. Each row maps canonical field names to
// values.
func (db *TestDB) SeedManifest(status model.ManifestStatus, rows []map[string]string) *model.Manifest {
	db.t.Helper()
	ctx := context.Background()

	manifest, err := db.Storage.CreateManifest(ctx, &model.Manifest{
		Name:      "test manifest",
		Status:    model.ManifestPending,
		HasHeader: true,
	})
	if err != nil {
		db.t.Fatalf("failed to seed manifest: %v", err)
	}

	if len(rows) > 0 {
		items := make([]model.Item, 0, len(rows))
		for i, row := range rows {
			item := model.Item{
				ManifestID: manifest.ID,
				RowNumber:  i + 1,
				RawData:    map[string]any{},
				Status:     model.ItemPending,
			}
			for field, value := range row {
				item.RawData[field] = value
			}
			items = append(items, item)
		}
		if err := db.Storage.SaveItems(ctx, items); err != nil {
			db.t.Fatalf("failed to seed items: %v", err)
		}

		saved, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
		if err != nil {
			db.t.Fatalf("failed to load seeded items: %v", err)
		}
		for i := range saved {
			item := &saved[i]
			item.MappedData = map[string]any{}
			for field, value := range rows[i] {
				item.MappedData[field] = value
				item.SetField(field, value)
			}
			item.Status = model.ItemMapped
			if err := db.Storage.UpdateItemMapping(ctx, item); err != nil {
				db.t.Fatalf("failed to map seeded item: %v", err)
			}
		}
		if err := db.Storage.SetManifestRowCount(ctx, manifest.ID, len(items)); err != nil {
			db.t.Fatalf("failed to set row count: %v", err)
		}
	}

	if status != model.ManifestPending {
		if err := db.Storage.UpdateManifestStatus(ctx, manifest.ID, status); err != nil {
			db.t.Fatalf("failed to set manifest status: %v", err)
		}
	}

	reloaded, err := db.Storage.GetManifest(ctx, manifest.ID)
	if err != nil || reloaded == nil {
		db.t.Fatalf("failed to reload manifest: %v", err)
	}
	return reloaded
}

// WithTransaction runs fn inside a transaction that is rolled back
// afterwards.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
