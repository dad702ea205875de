package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// Catalog adapts a storage backend to the product family catalog
// contract. Building it over a transaction keeps catalog writes inside
// the caller's transaction.
type Catalog struct {
	store service.Storage
}

// NewCatalog wraps a storage backend as a family catalog.
func NewCatalog(store service.Storage) *Catalog {
	return &Catalog{store: store}
}

var _ service.ProductFamilyCatalog = (*Catalog)(nil)

// FindByName looks a family up by name, case-insensitively.
func (c *Catalog) FindByName(ctx context.Context, name string) (*model.ProductFamily, error) {
	return c.store.FindFamilyByName(ctx, name)
}

// FindSimilar returns the existing family whose name is most similar to
// the given one, if any clears the threshold.
func (c *Catalog) FindSimilar(ctx context.Context, name string, threshold float64) (*model.ProductFamily, error) {
	families, err := c.store.ListFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}

	lower := strings.ToLower(name)
	var best *model.ProductFamily
	bestRatio := 0.0
	for i := range families {
		ratio := SimilarityRatio(lower, strings.ToLower(families[i].Name))
		if ratio > threshold && ratio > bestRatio {
			best = &families[i]
			bestRatio = ratio
		}
	}
	return best, nil
}

// Create adds a family, reusing an existing record when another writer
// created the same name first.
func (c *Catalog) Create(ctx context.Context, name, description string) (*model.ProductFamily, error) {
	return c.store.CreateFamily(ctx, &model.ProductFamily{Name: name, Description: description})
}
