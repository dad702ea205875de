// Package grouping partitions mapped manifest items into identical-spec
// groups.
package grouping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/refurbd/palletflow/internal/family"
	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// Grouper rebuilds a manifest's groups from its items. Every run is a
// full clear-and-rebuild: previous groups, item links, and family
// mappings for the manifest are discarded first, all inside one
// transaction.
type Grouper struct {
	storage    service.Storage
	propagator *family.Propagator
}

// New creates a Grouper backed by the given storage.
func New(storage service.Storage) *Grouper {
	return &Grouper{storage: storage, propagator: &family.Propagator{}}
}

// Group partitions the manifest's non-error items by the given fields,
// defaulting to the canonical spec fields. The partition is idempotent
// and independent of row order: the same items and fields always
// produce the same group keys and quantities.
func (g *Grouper) Group(ctx context.Context, manifest *model.Manifest, fields []string) (*service.GroupResult, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if manifest.Status != model.ManifestValidation {
		return nil, fmt.Errorf("manifest %d is %s, expected validation", manifest.ID, manifest.Status)
	}
	if len(fields) == 0 {
		fields = model.DefaultGroupFields
	}

	items, err := g.storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest items: %w", err)
	}

	runID := uuid.NewString()
	buckets := partition(items, fields)

	groups := make([]model.Group, 0, len(buckets))
	memberRows := make(map[string][]int64, len(buckets))
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		members := buckets[key]
		group := buildGroup(manifest.ID, key, fields, runID, members)
		groups = append(groups, group)
		ids := make([]int64, len(members))
		for i, member := range members {
			ids[i] = member.ID
		}
		memberRows[key] = ids
	}

	tx, err := g.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.ClearItemGroupLinks(ctx, manifest.ID); err != nil {
		return nil, err
	}
	if err := tx.DeleteGroups(ctx, manifest.ID); err != nil {
		return nil, err
	}

	itemCount := 0
	if len(groups) > 0 {
		saved, saveErr := tx.SaveGroups(ctx, groups)
		if saveErr != nil {
			return nil, saveErr
		}
		for _, group := range saved {
			ids := memberRows[group.GroupKey]
			if assignErr := tx.AssignItemsToGroup(ctx, group.ID, ids); assignErr != nil {
				return nil, assignErr
			}
			itemCount += len(ids)
		}
	}

	if _, err := g.propagator.SyncManifest(ctx, tx, manifest.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit grouping: %w", err)
	}

	slog.Info("rebuilt manifest groups",
		"manifest_id", manifest.ID,
		"run_id", runID,
		"groups", len(groups),
		"items", itemCount)

	return &service.GroupResult{
		RunID:      runID,
		GroupCount: len(groups),
		ItemCount:  itemCount,
	}, nil
}

// partition buckets groupable items by their canonical key. Items in
// the error state are left out of every group.
func partition(items []model.Item, fields []string) map[string][]*model.Item {
	buckets := make(map[string][]*model.Item)
	for i := range items {
		if items[i].Status == model.ItemError {
			continue
		}
		values := make([]string, len(fields))
		for j, field := range fields {
			values[j] = items[i].FieldValue(field)
		}
		key := model.GroupKey(values)
		buckets[key] = append(buckets[key], &items[i])
	}
	return buckets
}

func buildGroup(manifestID int64, key string, fields []string, runID string, members []*model.Item) model.Group {
	first := members[0]

	attributes := make(map[string]string, len(fields))
	for _, field := range fields {
		attributes[field] = first.FieldValue(field)
	}

	stats := model.GroupStats{
		MemoryVariations:      make(map[string]int),
		StorageVariations:     make(map[string]int),
		ConditionDistribution: make(map[string]int),
	}
	var priceSum float64
	priced := 0
	for _, member := range members {
		if v := member.FieldValue("memory"); v != "" {
			stats.MemoryVariations[v]++
		}
		if v := member.FieldValue("storage"); v != "" {
			stats.StorageVariations[v]++
		}
		if grade := member.FieldValue("condition_grade"); grade != "" {
			stats.ConditionDistribution[grade]++
		}
		if member.UnitPrice != nil {
			priceSum += *member.UnitPrice
			priced++
		}
		stats.RowNumbers = append(stats.RowNumbers, member.RowNumber)
	}
	sort.Ints(stats.RowNumbers)

	metadata := model.GroupMetadata{
		Attributes:  attributes,
		GroupFields: fields,
		RunID:       runID,
		Stats:       stats,
	}
	if priced > 0 {
		avg := priceSum / float64(priced)
		metadata.AvgUnitPrice = &avg
	}

	return model.Group{
		ManifestID:   manifestID,
		GroupKey:     key,
		Quantity:     len(members),
		Manufacturer: first.FieldValue("manufacturer"),
		Model:        first.FieldValue("model"),
		Metadata:     metadata,
	}
}
