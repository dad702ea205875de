package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("reaches the expected schema version", func(t *testing.T) {
		store := newTestStorage(t)

		var version int
		require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
		assert.Equal(t, ExpectedSchemaVersion, version)
	})

	t.Run("is idempotent", func(t *testing.T) {
		store := newTestStorage(t)
		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, store.Migrate(ctx))
	})

	t.Run("creates the pipeline tables", func(t *testing.T) {
		store := newTestStorage(t)

		for _, table := range []string{
			"manifests", "manifest_items", "manifest_groups",
			"manifest_templates", "manifest_column_mappings",
			"product_families", "receipt_batches", "batch_items",
			"inventory_history", "stock_levels",
		} {
			var name string
			err := store.db.QueryRowContext(ctx,
				`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
			assert.NoError(t, err, "table %s should exist", table)
		}
	})
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	created, err := tx.CreateManifest(ctx, &model.Manifest{Name: "rolled back"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NoError(t, tx.Rollback())

	loaded, err := store.GetManifest(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	created, err := tx.CreateManifest(ctx, &model.Manifest{Name: "committed"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	loaded, err := store.GetManifest(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "committed", loaded.Name)
}

func TestNestedTransactionRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	require.Error(t, err)
}

func TestValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // exercising the nil-context guard
		_, err := store.GetManifest(nil, 1)
		require.ErrorIs(t, err, ErrNilContext)
	})

	t.Run("empty database path", func(t *testing.T) {
		_, err := NewSQLiteStorage("")
		require.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("nil manifest", func(t *testing.T) {
		_, err := store.CreateManifest(ctx, nil)
		require.ErrorIs(t, err, ErrNilParameter)
	})
}
