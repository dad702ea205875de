package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// Ingestor loads manifest files into storage. Parsing is all-or-nothing
// per manifest: a malformed file fails the manifest without leaving
// partial rows behind.
type Ingestor struct {
	storage service.Storage

	// OnProgress, when set, is called as rows are staged for insert.
	OnProgress func(done, total int)
}

// New creates an Ingestor backed by the given storage.
func New(storage service.Storage) *Ingestor {
	return &Ingestor{storage: storage}
}

// UploadOptions describe the manifest record created ahead of parsing.
type UploadOptions struct {
	Name      string
	FileType  string
	Reference string
	Notes     string
}

// Upload creates the manifest record for a new lot. The manifest starts
// in the pending state with no rows.
func (in *Ingestor) Upload(ctx context.Context, opts UploadOptions) (*model.Manifest, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("manifest name is required")
	}
	manifest := &model.Manifest{
		Name:      opts.Name,
		FileType:  opts.FileType,
		Reference: opts.Reference,
		Notes:     opts.Notes,
		Status:    model.ManifestPending,
		HasHeader: true,
	}
	return in.storage.CreateManifest(ctx, manifest)
}

// Ingest parses the reader's rows and stores them as manifest items in
// one transaction. On success the manifest advances to the mapping
// state; on a parse error it is marked failed with the reason recorded.
func (in *Ingestor) Ingest(ctx context.Context, manifest *model.Manifest, reader RowReader) (int, error) {
	if manifest == nil {
		return 0, fmt.Errorf("manifest is required")
	}
	if manifest.Status != model.ManifestPending {
		return 0, fmt.Errorf("manifest %d is %s, expected pending", manifest.ID, manifest.Status)
	}

	headers, rows, err := reader.Read()
	if err != nil {
		if failErr := in.storage.SetManifestFailure(ctx, manifest.ID, err.Error()); failErr != nil {
			slog.Error("failed to record manifest failure", "manifest_id", manifest.ID, "error", failErr)
		}
		return 0, fmt.Errorf("failed to parse manifest file: %w", err)
	}

	slog.Info("parsed manifest file",
		"manifest_id", manifest.ID,
		"columns", len(headers),
		"rows", len(rows))

	items := make([]model.Item, 0, len(rows))
	for i, row := range rows {
		items = append(items, model.Item{
			ManifestID: manifest.ID,
			RowNumber:  i + 1,
			RawData:    row,
			Status:     model.ItemPending,
		})
		if in.OnProgress != nil {
			in.OnProgress(i+1, len(rows))
		}
	}

	tx, err := in.storage.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(items) > 0 {
		if err := tx.SaveItems(ctx, items); err != nil {
			return 0, fmt.Errorf("failed to save manifest items: %w", err)
		}
	}
	if err := tx.SetManifestRowCount(ctx, manifest.ID, len(items)); err != nil {
		return 0, err
	}
	if err := tx.UpdateManifestStatus(ctx, manifest.ID, model.ManifestMapping); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingestion: %w", err)
	}

	manifest.RowCount = len(items)
	manifest.Status = model.ManifestMapping
	return len(items), nil
}

// Preview parses headers and up to n rows without touching storage.
func Preview(reader RowReader, n int) ([]string, []model.RawRow, error) {
	headers, rows, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return headers, rows, nil
}
