// Package service defines the contracts between the pipeline stages and
// their collaborators: persistence, the product family catalog, the
// receiving subsystem, and the inventory ledger.
package service

import (
	"context"

	"github.com/refurbd/palletflow/internal/model"
)

// ItemFilter narrows item queries.
type ItemFilter struct {
	Status  model.ItemStatus
	GroupID *int64
	Limit   int
}

// Storage is the persistence contract for the manifest pipeline.
type Storage interface {
	// Manifest operations
	CreateManifest(ctx context.Context, manifest *model.Manifest) (*model.Manifest, error)
	GetManifest(ctx context.Context, id int64) (*model.Manifest, error)
	ListManifests(ctx context.Context, limit int) ([]model.Manifest, error)
	UpdateManifestStatus(ctx context.Context, id int64, status model.ManifestStatus) error
	SetManifestRowCount(ctx context.Context, id int64, rowCount int) error
	UpdateManifestCounts(ctx context.Context, id int64, processed, errors int) error
	SetManifestFailure(ctx context.Context, id int64, reason string) error
	LinkManifestTemplate(ctx context.Context, id, templateID int64) error
	CompleteManifest(ctx context.Context, id, batchID int64) error

	// Item operations
	SaveItems(ctx context.Context, items []model.Item) error
	GetItems(ctx context.Context, manifestID int64, filter ItemFilter) ([]model.Item, error)
	GetItemByRow(ctx context.Context, manifestID int64, rowNumber int) (*model.Item, error)
	UpdateItemMapping(ctx context.Context, item *model.Item) error
	ClearItemGroupLinks(ctx context.Context, manifestID int64) error
	AssignItemsToGroup(ctx context.Context, groupID int64, itemIDs []int64) error
	SetItemFamilyMappedGroup(ctx context.Context, itemID int64, groupID *int64) error
	MarkGroupItemsProcessed(ctx context.Context, groupID, batchItemID int64) error

	// Group operations
	DeleteGroups(ctx context.Context, manifestID int64) error
	SaveGroups(ctx context.Context, groups []model.Group) ([]model.Group, error)
	GetGroups(ctx context.Context, manifestID int64) ([]model.Group, error)
	GetGroup(ctx context.Context, id int64) (*model.Group, error)
	SetGroupFamily(ctx context.Context, groupID int64, familyID *int64) error
	SetGroupBatchItem(ctx context.Context, groupID, batchItemID int64) error

	// Template operations
	SaveTemplate(ctx context.Context, template *model.Template) (*model.Template, error)
	GetTemplateByName(ctx context.Context, name string) (*model.Template, error)
	ListTemplates(ctx context.Context) ([]model.Template, error)

	// Product family catalog
	FindFamilyByName(ctx context.Context, name string) (*model.ProductFamily, error)
	ListFamilies(ctx context.Context) ([]model.ProductFamily, error)
	CreateFamily(ctx context.Context, family *model.ProductFamily) (*model.ProductFamily, error)

	// Receiving
	CreateReceiptBatch(ctx context.Context, batch *model.ReceiptBatch) (*model.ReceiptBatch, error)
	CreateBatchItem(ctx context.Context, item *model.BatchItem) (*model.BatchItem, error)
	UpdateBatchTotals(ctx context.Context, batchID int64) error

	// Inventory ledger
	SaveInventoryReceipt(ctx context.Context, receipt *model.InventoryReceipt) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction is a database transaction exposing the full storage
// surface so whole pipeline stages can commit or roll back atomically.
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}

// ProductFamilyCatalog is the shared catalog consumed by the classifier.
type ProductFamilyCatalog interface {
	FindByName(ctx context.Context, name string) (*model.ProductFamily, error)
	FindSimilar(ctx context.Context, name string, threshold float64) (*model.ProductFamily, error)
	Create(ctx context.Context, name, description string) (*model.ProductFamily, error)
}

// Receiving is the batch-creation surface of the receiving subsystem.
type Receiving interface {
	CreateBatch(ctx context.Context, reference, location, createdBy string) (*model.ReceiptBatch, error)
	CreateBatchItem(ctx context.Context, item *model.BatchItem) (*model.BatchItem, error)
}

// InventoryLedger records stock increments with an audit trail.
type InventoryLedger interface {
	Receive(ctx context.Context, familyID int64, location string, quantity int, reason, reference string) (*model.InventoryReceipt, error)
}
