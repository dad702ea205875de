package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/batch"
	"github.com/refurbd/palletflow/internal/classify"
	"github.com/refurbd/palletflow/internal/ingest"
	"github.com/refurbd/palletflow/internal/mapping"
	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
	"github.com/refurbd/palletflow/internal/testutil"
)

type fixedReader struct {
	headers []string
	rows    []model.RawRow
}

func (f *fixedReader) Read() ([]string, []model.RawRow, error) {
	return f.headers, f.rows, nil
}

// TestRunnerFullPipeline walks one manifest from upload through batch
// creation, checking the status transitions between stages.
func TestRunnerFullPipeline(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	runner := NewRunner(db.Storage)

	manifest, err := runner.Ingestor.Upload(ctx, ingest.UploadOptions{
		Name:      "lenovo pallet",
		FileType:  "csv",
		Reference: "PO-3001",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ManifestPending, manifest.Status)

	reader := &fixedReader{
		headers: []string{"SN", "Mfg", "Model No", "RAM", "Disk", "Grade", "Price"},
		rows: []model.RawRow{
			{"SN": "A1", "Mfg": "Lenovo", "Model No": "ThinkPad T490", "RAM": "8GB", "Disk": "256GB", "Grade": "A", "Price": "$199"},
			{"SN": "A2", "Mfg": "Lenovo", "Model No": "ThinkPad T490", "RAM": "8GB", "Disk": "256GB", "Grade": "A", "Price": "$210"},
			{"SN": "A3", "Mfg": "Dell", "Model No": "Latitude 5490", "RAM": "16GB", "Disk": "512GB", "Grade": "B", "Price": "$250"},
		},
	}
	count, err := runner.Ingest(ctx, manifest.ID, reader)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stored, err := db.Storage.GetManifest(ctx, manifest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ManifestMapping, stored.Status)

	suggested := mapping.Suggest(reader.headers, mapping.Fields)
	assert.Equal(t, "serial", suggested["SN"])
	assert.Equal(t, "manufacturer", suggested["Mfg"])
	assert.Equal(t, "model", suggested["Model No"])
	assert.Equal(t, "memory", suggested["RAM"])
	assert.Equal(t, "storage", suggested["Disk"])
	assert.Equal(t, "condition_grade", suggested["Grade"])
	assert.Equal(t, "unit_price", suggested["Price"])

	applyResult, err := runner.ApplyMapping(ctx, manifest.ID, suggested, mapping.ApplyOptions{
		TemplateName:   "lenovo-vendor",
		SaveAsTemplate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applyResult.MappedCount)
	assert.Equal(t, 0, applyResult.ErrorCount)
	require.NotNil(t, applyResult.TemplateID)

	stored, err = db.Storage.GetManifest(ctx, manifest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ManifestValidation, stored.Status)

	groupResult, err := runner.Group(ctx, manifest.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, groupResult.GroupCount)
	assert.Equal(t, 3, groupResult.ItemCount)

	classifyStats, err := runner.Classify(ctx, manifest.ID, classify.DefaultResolveOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, classifyStats.Assigned)
	assert.Equal(t, 2, classifyStats.NewFamilies)
	assert.Equal(t, 0, classifyStats.NeedsReview)

	groups, err := db.Storage.GetGroups(ctx, manifest.ID)
	require.NoError(t, err)
	for _, group := range groups {
		require.NotNil(t, group.ProductFamilyID)
	}

	items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	require.NoError(t, err)
	for _, item := range items {
		require.NotNil(t, item.FamilyMappedGroupID)
		assert.Equal(t, model.ItemMapped, item.EffectiveStatus())
	}

	matResult, err := runner.Materialize(ctx, manifest.ID, "DOCK-1", batch.MaterializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, matResult.ItemsCreated)
	require.NotNil(t, matResult.Batch)

	stored, err = db.Storage.GetManifest(ctx, manifest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ManifestCompleted, stored.Status)
	require.NotNil(t, stored.BatchID)
	assert.Equal(t, matResult.Batch.ID, *stored.BatchID)

	items, err = db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, model.ItemProcessed, item.Status)
	}
}

func TestRunnerUnknownManifest(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	runner := NewRunner(db.Storage)

	_, err := runner.Group(ctx, 9999, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunnerStageOrderEnforced(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	runner := NewRunner(db.Storage)

	manifest, err := runner.Ingestor.Upload(ctx, ingest.UploadOptions{Name: "out of order"})
	require.NoError(t, err)

	_, err = runner.Group(ctx, manifest.ID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected validation")

	_, err = runner.ApplyMapping(ctx, manifest.ID, map[string]string{"SN": "serial"}, mapping.ApplyOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected mapping")
}
