package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
	"github.com/refurbd/palletflow/internal/testutil"
)

func seedRawManifest(t *testing.T, db *testutil.TestDB, rows []map[string]any) *model.Manifest {
	t.Helper()
	ctx := context.Background()

	manifest, err := db.Storage.CreateManifest(ctx, &model.Manifest{
		Name:      "raw manifest",
		Status:    model.ManifestPending,
		HasHeader: true,
	})
	require.NoError(t, err)

	items := make([]model.Item, 0, len(rows))
	for i, row := range rows {
		items = append(items, model.Item{
			ManifestID: manifest.ID,
			RowNumber:  i + 1,
			RawData:    row,
			Status:     model.ItemPending,
		})
	}
	require.NoError(t, db.Storage.SaveItems(ctx, items))
	require.NoError(t, db.Storage.SetManifestRowCount(ctx, manifest.ID, len(items)))
	require.NoError(t, db.Storage.UpdateManifestStatus(ctx, manifest.ID, model.ManifestMapping))

	reloaded, err := db.Storage.GetManifest(ctx, manifest.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	return reloaded
}

func TestApplierApply(t *testing.T) {
	ctx := context.Background()

	t.Run("maps raw columns into typed fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		manifest := seedRawManifest(t, db, []map[string]any{
			{"Mfg": "Lenovo", "Model No": "T490", "SN": "ABC123", "Price": "$150.00"},
			{"Mfg": "Dell", "Model No": "Latitude 5490", "SN": "DEF456", "Price": "200"},
		})

		applier := NewApplier(db.Storage)
		result, err := applier.Apply(ctx, manifest, map[string]string{
			"Mfg":      "manufacturer",
			"Model No": "model",
			"SN":       "serial",
			"Price":    "unit_price",
		}, ApplyOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.MappedCount)
		assert.Equal(t, 0, result.ErrorCount)
		assert.Empty(t, result.Warnings)

		items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Lenovo", items[0].Manufacturer)
		assert.Equal(t, "T490", items[0].Model)
		assert.Equal(t, "ABC123", items[0].Serial)
		require.NotNil(t, items[0].UnitPrice)
		assert.InDelta(t, 150.0, *items[0].UnitPrice, 0.001)
		assert.Equal(t, model.ItemMapped, items[0].Status)

		updated, err := db.Storage.GetManifest(ctx, manifest.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ManifestValidation, updated.Status)
		assert.Equal(t, 2, updated.ProcessedCount)
	})

	t.Run("empty rows marked error without aborting", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		manifest := seedRawManifest(t, db, []map[string]any{
			{"Mfg": "Lenovo", "Model No": "T490", "SN": "ABC123"},
			{"Extra": "unmapped"},
		})

		applier := NewApplier(db.Storage)
		result, err := applier.Apply(ctx, manifest, map[string]string{
			"Mfg":      "manufacturer",
			"Model No": "model",
			"SN":       "serial",
		}, ApplyOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.MappedCount)
		assert.Equal(t, 1, result.ErrorCount)

		items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{Status: model.ItemError})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].RowNumber)
		assert.NotEmpty(t, items[0].ErrorMessage)
	})

	t.Run("warns when required fields are not covered", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		manifest := seedRawManifest(t, db, []map[string]any{
			{"Mfg": "Lenovo"},
		})

		applier := NewApplier(db.Storage)
		result, err := applier.Apply(ctx, manifest, map[string]string{
			"Mfg": "manufacturer",
		}, ApplyOptions{})
		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "model")
		assert.Contains(t, result.Warnings[0], "serial")
	})

	t.Run("warns on unparseable prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		manifest := seedRawManifest(t, db, []map[string]any{
			{"Mfg": "Lenovo", "Model No": "T490", "SN": "A1", "Price": "call us"},
			{"Mfg": "Lenovo", "Model No": "T490", "SN": "A2", "Price": "100"},
		})

		applier := NewApplier(db.Storage)
		result, err := applier.Apply(ctx, manifest, map[string]string{
			"Mfg":      "manufacturer",
			"Model No": "model",
			"SN":       "serial",
			"Price":    "unit_price",
		}, ApplyOptions{})
		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "unit_price")
	})

	t.Run("saves and links template", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		manifest := seedRawManifest(t, db, []map[string]any{
			{"Mfg": "Lenovo", "Model No": "T490", "SN": "ABC123"},
		})

		applier := NewApplier(db.Storage)
		mapping := map[string]string{
			"Mfg":      "manufacturer",
			"Model No": "model",
			"SN":       "serial",
		}
		result, err := applier.Apply(ctx, manifest, mapping, ApplyOptions{
			TemplateName:   "vendor-a",
			SaveAsTemplate: true,
		})
		require.NoError(t, err)
		require.NotNil(t, result.TemplateID)

		loaded, err := applier.TemplateMappings(ctx, "vendor-a")
		require.NoError(t, err)
		assert.Equal(t, mapping, loaded)

		updated, err := db.Storage.GetManifest(ctx, manifest.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.TemplateID)
		assert.Equal(t, *result.TemplateID, *updated.TemplateID)
	})

	t.Run("rejects wrong manifest status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		manifest := db.SeedManifest(model.ManifestValidation, []map[string]string{
			{"manufacturer": "Lenovo", "model": "T490", "serial": "A1"},
		})

		applier := NewApplier(db.Storage)
		_, err := applier.Apply(ctx, manifest, map[string]string{"Mfg": "manufacturer"}, ApplyOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected mapping")
	})
}
