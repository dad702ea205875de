// Package family maintains the denormalized family-mapping reference on
// manifest items.
//
// An item's family_mapped_group_id must point at its own group exactly
// when that group has a resolved product family, and must be null
// otherwise. Both edges that can break this (item moved between groups,
// group gaining or losing a family) route through the Propagator.
package family

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// Propagator recomputes family mapping references. Methods take the
// storage explicitly so callers can run them inside their own
// transaction.
type Propagator struct{}

// DesiredRef computes the correct family_mapped_group_id for an item
// given its current group, or nil when the item should not carry one.
func DesiredRef(item *model.Item, group *model.Group) *int64 {
	if item.GroupID == nil || group == nil {
		return nil
	}
	if group.ID != *item.GroupID || group.ProductFamilyID == nil {
		return nil
	}
	return item.GroupID
}

// SyncItem reconciles one item against its group. Persists only when
// the stored reference is wrong. Returns whether a write happened.
func (p *Propagator) SyncItem(ctx context.Context, store service.Storage, item *model.Item, group *model.Group) (bool, error) {
	desired := DesiredRef(item, group)
	if refEqual(item.FamilyMappedGroupID, desired) {
		return false, nil
	}
	if err := store.SetItemFamilyMappedGroup(ctx, item.ID, desired); err != nil {
		return false, fmt.Errorf("failed to sync family mapping for item %d: %w", item.ID, err)
	}
	item.FamilyMappedGroupID = desired
	return true, nil
}

// SyncGroup reconciles every member of a group after its family link
// changed. Returns the number of items updated.
func (p *Propagator) SyncGroup(ctx context.Context, store service.Storage, group *model.Group) (int, error) {
	if group == nil {
		return 0, fmt.Errorf("group is required")
	}

	items, err := store.GetItems(ctx, group.ManifestID, service.ItemFilter{GroupID: &group.ID})
	if err != nil {
		return 0, fmt.Errorf("failed to load group members: %w", err)
	}

	updated := 0
	for i := range items {
		changed, syncErr := p.SyncItem(ctx, store, &items[i], group)
		if syncErr != nil {
			return updated, syncErr
		}
		if changed {
			updated++
		}
	}

	if updated > 0 {
		slog.Debug("propagated family mapping",
			"group_id", group.ID,
			"items_updated", updated,
			"has_family", group.ProductFamilyID != nil)
	}
	return updated, nil
}

// SyncManifest reconciles every item in a manifest. Used after bulk
// operations that may have touched many groups.
func (p *Propagator) SyncManifest(ctx context.Context, store service.Storage, manifestID int64) (int, error) {
	groups, err := store.GetGroups(ctx, manifestID)
	if err != nil {
		return 0, fmt.Errorf("failed to load manifest groups: %w", err)
	}
	byID := make(map[int64]*model.Group, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}

	items, err := store.GetItems(ctx, manifestID, service.ItemFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load manifest items: %w", err)
	}

	updated := 0
	for i := range items {
		var group *model.Group
		if items[i].GroupID != nil {
			group = byID[*items[i].GroupID]
		}
		changed, syncErr := p.SyncItem(ctx, store, &items[i], group)
		if syncErr != nil {
			return updated, syncErr
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func refEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
