package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/refurbd/palletflow/internal/family"
	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// ResolveOptions tune family resolution for one run.
type ResolveOptions struct {
	// AutoCreate allows creating families for confident classifications
	// with no existing match. When false those land on the review list.
	AutoCreate bool
	// ConfidenceThreshold routes classifications below it to review.
	ConfidenceThreshold float64
	// SimilarityThreshold is the minimum name similarity for reusing an
	// existing family instead of creating a new one.
	SimilarityThreshold float64
}

// DefaultResolveOptions mirror the thresholds the review workflow was
// calibrated against.
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{
		AutoCreate:          true,
		ConfidenceThreshold: 0.7,
		SimilarityThreshold: 0.8,
	}
}

// Resolver links manifest groups to product families: classify the
// group's name, then resolve exact match, similar match, auto-create,
// or manual review, in that order.
type Resolver struct {
	storage    service.Storage
	classifier *Classifier
	propagator *family.Propagator
}

// NewResolver creates a Resolver using the given classifier.
func NewResolver(storage service.Storage, classifier *Classifier) *Resolver {
	return &Resolver{
		storage:    storage,
		classifier: classifier,
		propagator: &family.Propagator{},
	}
}

// ResolveGroups classifies every unresolved group in the manifest and
// assigns families where confidence allows. All assignments and family
// creations commit atomically.
func (r *Resolver) ResolveGroups(ctx context.Context, manifest *model.Manifest, opts ResolveOptions) (*service.ClassifyStats, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if manifest.Status != model.ManifestValidation {
		return nil, fmt.Errorf("manifest %d is %s, expected validation", manifest.ID, manifest.Status)
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.7
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.8
	}

	groups, err := r.storage.GetGroups(ctx, manifest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest groups: %w", err)
	}

	tx, err := r.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	catalog := NewCatalog(tx)
	stats := &service.ClassifyStats{}

	for i := range groups {
		group := &groups[i]
		if group.ProductFamilyID != nil {
			continue
		}
		stats.Processed++

		name := r.groupProductName(ctx, group)
		if name == "" {
			stats.Skipped++
			continue
		}

		classification, ok := r.classifier.Classify(name)
		if !ok {
			stats.Skipped++
			continue
		}

		if classification.Confidence < opts.ConfidenceThreshold {
			stats.NeedsReview++
			stats.Review = append(stats.Review, service.ReviewEntry{
				GroupID:    group.ID,
				FamilyName: classification.FamilyName,
				Confidence: classification.Confidence,
				Reason:     "low confidence",
			})
			continue
		}

		resolved, resolveErr := r.resolveFamily(ctx, catalog, classification, opts, stats)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if resolved == nil {
			stats.NeedsReview++
			stats.Review = append(stats.Review, service.ReviewEntry{
				GroupID:    group.ID,
				FamilyName: classification.FamilyName,
				Confidence: classification.Confidence,
				Reason:     "no matching family and auto-create disabled",
			})
			continue
		}

		if err := tx.SetGroupFamily(ctx, group.ID, &resolved.ID); err != nil {
			return nil, err
		}
		group.ProductFamilyID = &resolved.ID
		if _, err := r.propagator.SyncGroup(ctx, tx, group); err != nil {
			return nil, err
		}
		stats.Assigned++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit family resolution: %w", err)
	}

	slog.Info("resolved group families",
		"manifest_id", manifest.ID,
		"processed", stats.Processed,
		"assigned", stats.Assigned,
		"new_families", stats.NewFamilies,
		"similar_matches", stats.SimilarMatches,
		"needs_review", stats.NeedsReview,
		"skipped", stats.Skipped)
	return stats, nil
}

func (r *Resolver) resolveFamily(ctx context.Context, catalog *Catalog, classification *Classification, opts ResolveOptions, stats *service.ClassifyStats) (*model.ProductFamily, error) {
	existing, err := catalog.FindByName(ctx, classification.FamilyName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	similar, err := catalog.FindSimilar(ctx, classification.FamilyName, opts.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	if similar != nil {
		stats.SimilarMatches++
		return similar, nil
	}

	if !opts.AutoCreate {
		return nil, nil
	}

	created, err := catalog.Create(ctx, classification.FamilyName,
		fmt.Sprintf("Auto-created family for %s products", classification.FamilyName))
	if err != nil {
		return nil, fmt.Errorf("failed to create family %q: %w", classification.FamilyName, err)
	}
	stats.NewFamilies++
	return created, nil
}

// groupProductName picks the classifier input: manufacturer + model
// when present, otherwise a descriptive column from a representative
// member row.
func (r *Resolver) groupProductName(ctx context.Context, group *model.Group) string {
	name := strings.TrimSpace(group.Manufacturer + " " + group.Model)
	if name != "" {
		return name
	}

	items, err := r.storage.GetItems(ctx, group.ManifestID, service.ItemFilter{GroupID: &group.ID, Limit: 1})
	if err != nil || len(items) == 0 {
		return ""
	}
	for header, value := range items[0].RawData {
		lower := strings.ToLower(header)
		if strings.Contains(lower, "product") || strings.Contains(lower, "description") || strings.Contains(lower, "title") {
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
