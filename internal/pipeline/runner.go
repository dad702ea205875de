// Package pipeline orchestrates the manifest stages and serializes them
// per manifest.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/refurbd/palletflow/internal/batch"
	"github.com/refurbd/palletflow/internal/classify"
	"github.com/refurbd/palletflow/internal/grouping"
	"github.com/refurbd/palletflow/internal/ingest"
	"github.com/refurbd/palletflow/internal/mapping"
	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// Runner is the stage orchestrator. At most one stage runs at a time
// for a given manifest; different manifests proceed independently.
type Runner struct {
	storage      service.Storage
	Ingestor     *ingest.Ingestor
	Applier      *mapping.Applier
	Grouper      *grouping.Grouper
	Resolver     *classify.Resolver
	Materializer *batch.Materializer

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewRunner wires the stage services over one storage backend.
func NewRunner(storage service.Storage) *Runner {
	return &Runner{
		storage:      storage,
		Ingestor:     ingest.New(storage),
		Applier:      mapping.NewApplier(storage),
		Grouper:      grouping.New(storage),
		Resolver:     classify.NewResolver(storage, classify.NewClassifier(classify.DefaultPatterns())),
		Materializer: batch.New(storage),
		locks:        make(map[int64]*sync.Mutex),
	}
}

// lock acquires the per-manifest mutex and returns its release func.
func (r *Runner) lock(manifestID int64) func() {
	r.mu.Lock()
	l, ok := r.locks[manifestID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[manifestID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Runner) manifest(ctx context.Context, id int64) (*model.Manifest, error) {
	manifest, err := r.storage.GetManifest(ctx, id)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, fmt.Errorf("manifest %d not found", id)
	}
	return manifest, nil
}

// Ingest parses a manifest file into items for an uploaded manifest.
func (r *Runner) Ingest(ctx context.Context, manifestID int64, reader ingest.RowReader) (int, error) {
	defer r.lock(manifestID)()
	manifest, err := r.manifest(ctx, manifestID)
	if err != nil {
		return 0, err
	}
	return r.Ingestor.Ingest(ctx, manifest, reader)
}

// ApplyMapping projects a confirmed column mapping onto the manifest.
func (r *Runner) ApplyMapping(ctx context.Context, manifestID int64, columnMapping map[string]string, opts mapping.ApplyOptions) (*service.ApplyResult, error) {
	defer r.lock(manifestID)()
	manifest, err := r.manifest(ctx, manifestID)
	if err != nil {
		return nil, err
	}
	return r.Applier.Apply(ctx, manifest, columnMapping, opts)
}

// Group rebuilds the manifest's item groups.
func (r *Runner) Group(ctx context.Context, manifestID int64, fields []string) (*service.GroupResult, error) {
	defer r.lock(manifestID)()
	manifest, err := r.manifest(ctx, manifestID)
	if err != nil {
		return nil, err
	}
	return r.Grouper.Group(ctx, manifest, fields)
}

// Classify resolves product families for the manifest's groups.
func (r *Runner) Classify(ctx context.Context, manifestID int64, opts classify.ResolveOptions) (*service.ClassifyStats, error) {
	defer r.lock(manifestID)()
	manifest, err := r.manifest(ctx, manifestID)
	if err != nil {
		return nil, err
	}
	return r.Resolver.ResolveGroups(ctx, manifest, opts)
}

// Materialize turns the manifest's groups into a receiving batch.
func (r *Runner) Materialize(ctx context.Context, manifestID int64, location string, opts batch.MaterializeOptions) (*service.MaterializeResult, error) {
	defer r.lock(manifestID)()
	manifest, err := r.manifest(ctx, manifestID)
	if err != nil {
		return nil, err
	}
	return r.Materializer.CreateBatch(ctx, manifest, location, opts)
}
