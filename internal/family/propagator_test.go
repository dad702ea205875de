package family

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
	"github.com/refurbd/palletflow/internal/testutil"
)

func TestDesiredRef(t *testing.T) {
	groupID := int64(3)
	familyID := int64(9)
	otherID := int64(4)

	t.Run("group with family yields the group id", func(t *testing.T) {
		item := &model.Item{GroupID: &groupID}
		group := &model.Group{ID: groupID, ProductFamilyID: &familyID}
		ref := DesiredRef(item, group)
		require.NotNil(t, ref)
		assert.Equal(t, groupID, *ref)
	})

	t.Run("group without family yields nil", func(t *testing.T) {
		item := &model.Item{GroupID: &groupID}
		group := &model.Group{ID: groupID}
		assert.Nil(t, DesiredRef(item, group))
	})

	t.Run("ungrouped item yields nil", func(t *testing.T) {
		item := &model.Item{}
		group := &model.Group{ID: groupID, ProductFamilyID: &familyID}
		assert.Nil(t, DesiredRef(item, group))
	})

	t.Run("stale group yields nil", func(t *testing.T) {
		item := &model.Item{GroupID: &otherID}
		group := &model.Group{ID: groupID, ProductFamilyID: &familyID}
		assert.Nil(t, DesiredRef(item, group))
	})
}

func seedGroupWithItems(t *testing.T, db *testutil.TestDB) (*model.Manifest, *model.Group, []model.Item) {
	t.Helper()
	ctx := context.Background()

	manifest := db.SeedManifest(model.ManifestValidation, []map[string]string{
		{"manufacturer": "Lenovo", "model": "T490", "serial": "S1"},
		{"manufacturer": "Lenovo", "model": "T490", "serial": "S2"},
	})

	saved, err := db.Storage.SaveGroups(ctx, []model.Group{{
		ManifestID: manifest.ID,
		GroupKey:   model.GroupKey([]string{"lenovo", "t490"}),
		Quantity:   2,
	}})
	require.NoError(t, err)
	group := &saved[0]

	items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	require.NoError(t, err)
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	require.NoError(t, db.Storage.AssignItemsToGroup(ctx, group.ID, ids))

	items, err = db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	require.NoError(t, err)
	return manifest, group, items
}

func TestSyncGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("family gained sets references on all members", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, group, _ := seedGroupWithItems(t, db)
		families := db.SeedFamilies("Lenovo Thinkpad T490")

		require.NoError(t, db.Storage.SetGroupFamily(ctx, group.ID, &families[0].ID))
		group.ProductFamilyID = &families[0].ID

		p := &Propagator{}
		updated, err := p.SyncGroup(ctx, db.Storage, group)
		require.NoError(t, err)
		assert.Equal(t, 2, updated)

		items, err := db.Storage.GetItems(ctx, group.ManifestID, service.ItemFilter{})
		require.NoError(t, err)
		for _, item := range items {
			require.NotNil(t, item.FamilyMappedGroupID)
			assert.Equal(t, group.ID, *item.FamilyMappedGroupID)
			assert.Equal(t, model.ItemMapped, item.EffectiveStatus())
		}
	})

	t.Run("family lost clears references", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, group, _ := seedGroupWithItems(t, db)
		families := db.SeedFamilies("Lenovo Thinkpad T490")

		require.NoError(t, db.Storage.SetGroupFamily(ctx, group.ID, &families[0].ID))
		group.ProductFamilyID = &families[0].ID
		p := &Propagator{}
		_, err := p.SyncGroup(ctx, db.Storage, group)
		require.NoError(t, err)

		require.NoError(t, db.Storage.SetGroupFamily(ctx, group.ID, nil))
		group.ProductFamilyID = nil
		updated, err := p.SyncGroup(ctx, db.Storage, group)
		require.NoError(t, err)
		assert.Equal(t, 2, updated)

		items, err := db.Storage.GetItems(ctx, group.ManifestID, service.ItemFilter{})
		require.NoError(t, err)
		for _, item := range items {
			assert.Nil(t, item.FamilyMappedGroupID)
		}
	})

	t.Run("second sync writes nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, group, _ := seedGroupWithItems(t, db)
		families := db.SeedFamilies("Lenovo Thinkpad T490")

		require.NoError(t, db.Storage.SetGroupFamily(ctx, group.ID, &families[0].ID))
		group.ProductFamilyID = &families[0].ID

		p := &Propagator{}
		first, err := p.SyncGroup(ctx, db.Storage, group)
		require.NoError(t, err)
		assert.Equal(t, 2, first)

		second, err := p.SyncGroup(ctx, db.Storage, group)
		require.NoError(t, err)
		assert.Equal(t, 0, second)
	})
}

func TestSyncManifest(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	manifest, group, _ := seedGroupWithItems(t, db)
	families := db.SeedFamilies("Lenovo Thinkpad T490")

	require.NoError(t, db.Storage.SetGroupFamily(ctx, group.ID, &families[0].ID))

	p := &Propagator{}
	updated, err := p.SyncManifest(ctx, db.Storage, manifest.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	items, err := db.Storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	require.NoError(t, err)
	for _, item := range items {
		require.NotNil(t, item.FamilyMappedGroupID)
		assert.Equal(t, group.ID, *item.FamilyMappedGroupID)
	}
}
