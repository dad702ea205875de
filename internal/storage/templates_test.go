package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/model"
)

func vendorTemplate(name string) *model.Template {
	return &model.Template{
		Name:        name,
		Description: "test vendor layout",
		Headers:     []string{"Mfg", "Model No", "SN"},
		Mappings: []model.ColumnMapping{
			{SourceColumn: "Mfg", TargetField: "manufacturer", GroupKey: "basic_info", Required: true, ProcessingOrder: 0},
			{SourceColumn: "Model No", TargetField: "model", GroupKey: "basic_info", Required: true, ProcessingOrder: 1},
			{SourceColumn: "SN", TargetField: "serial", GroupKey: "identification", Required: true, ProcessingOrder: 2},
		},
	}
}

func TestSaveTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips rules", func(t *testing.T) {
		store := newTestStorage(t)

		saved, err := store.SaveTemplate(ctx, vendorTemplate("vendor-a"))
		require.NoError(t, err)
		assert.NotZero(t, saved.ID)

		loaded, err := store.GetTemplateByName(ctx, "vendor-a")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, []string{"Mfg", "Model No", "SN"}, loaded.Headers)
		require.Len(t, loaded.Mappings, 3)
		assert.Equal(t, "manufacturer", loaded.Mappings[0].TargetField)
		assert.True(t, loaded.Mappings[0].Required)
		assert.Equal(t, map[string]string{
			"Mfg":      "manufacturer",
			"Model No": "model",
			"SN":       "serial",
		}, loaded.MappingByColumn())
	})

	t.Run("saving under an existing name replaces the rules", func(t *testing.T) {
		store := newTestStorage(t)

		first, err := store.SaveTemplate(ctx, vendorTemplate("vendor-a"))
		require.NoError(t, err)

		updated := vendorTemplate("vendor-a")
		updated.Description = "second layout"
		updated.Mappings = updated.Mappings[:1]
		second, err := store.SaveTemplate(ctx, updated)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		loaded, err := store.GetTemplateByName(ctx, "vendor-a")
		require.NoError(t, err)
		assert.Equal(t, "second layout", loaded.Description)
		assert.Len(t, loaded.Mappings, 1)

		templates, err := store.ListTemplates(ctx)
		require.NoError(t, err)
		assert.Len(t, templates, 1)
	})

	t.Run("missing template returns nil without error", func(t *testing.T) {
		store := newTestStorage(t)

		loaded, err := store.GetTemplateByName(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("requires a name", func(t *testing.T) {
		store := newTestStorage(t)
		_, err := store.SaveTemplate(ctx, &model.Template{})
		require.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestListTemplates(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.SaveTemplate(ctx, vendorTemplate("vendor-b"))
	require.NoError(t, err)
	_, err = store.SaveTemplate(ctx, vendorTemplate("vendor-a"))
	require.NoError(t, err)

	templates, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "vendor-a", templates[0].Name)
	assert.Equal(t, "vendor-b", templates[1].Name)
	assert.Len(t, templates[0].Mappings, 3)
}
