package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/refurbd/palletflow/internal/model"
)

// CreateManifest inserts a new manifest record.
func (s *SQLiteStorage) CreateManifest(ctx context.Context, manifest *model.Manifest) (*model.Manifest, error) {
	return createManifest(ctx, s.db, manifest)
}

func (t *sqliteTransaction) CreateManifest(ctx context.Context, manifest *model.Manifest) (*model.Manifest, error) {
	return createManifest(ctx, t.tx, manifest)
}

func createManifest(ctx context.Context, db dbtx, manifest *model.Manifest) (*model.Manifest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w: manifest", ErrNilParameter)
	}
	if err := validateString(manifest.Name, "manifest name"); err != nil {
		return nil, err
	}

	if manifest.Status == "" {
		manifest.Status = model.ManifestPending
	}
	if manifest.FileType == "" {
		manifest.FileType = "csv"
	}
	now := time.Now()

	result, err := db.ExecContext(ctx, `
		INSERT INTO manifests (name, status, file_type, has_header, reference, notes, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		manifest.Name, manifest.Status, manifest.FileType, manifest.HasHeader,
		manifest.Reference, manifest.Notes, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest ID: %w", err)
	}

	created := *manifest
	created.ID = id
	created.UploadedAt = now

	slog.Info("created manifest", "id", id, "name", manifest.Name)
	return &created, nil
}

const manifestColumns = `id, name, status, file_type, has_header, reference, notes,
	template_id, batch_id, row_count, processed_count, error_count, uploaded_at, completed_at`

func scanManifest(row interface{ Scan(...any) error }) (*model.Manifest, error) {
	var m model.Manifest
	var reference, notes sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&m.ID, &m.Name, &m.Status, &m.FileType, &m.HasHeader,
		&reference, &notes, &m.TemplateID, &m.BatchID,
		&m.RowCount, &m.ProcessedCount, &m.ErrorCount, &m.UploadedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	m.Reference = reference.String
	m.Notes = notes.String
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}
	return &m, nil
}

// GetManifest returns a manifest by ID, or nil when it does not exist.
func (s *SQLiteStorage) GetManifest(ctx context.Context, id int64) (*model.Manifest, error) {
	return getManifest(ctx, s.db, id)
}

func (t *sqliteTransaction) GetManifest(ctx context.Context, id int64) (*model.Manifest, error) {
	return getManifest(ctx, t.tx, id)
}

func getManifest(ctx context.Context, db dbtx, id int64) (*model.Manifest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "manifest ID"); err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+manifestColumns+` FROM manifests WHERE id = ?`, id)
	m, err := scanManifest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest: %w", err)
	}
	return m, nil
}

// ListManifests returns recent manifests, newest first.
func (s *SQLiteStorage) ListManifests(ctx context.Context, limit int) ([]model.Manifest, error) {
	return listManifests(ctx, s.db, limit)
}

func (t *sqliteTransaction) ListManifests(ctx context.Context, limit int) ([]model.Manifest, error) {
	return listManifests(ctx, t.tx, limit)
}

func listManifests(ctx context.Context, db dbtx, limit int) ([]model.Manifest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+manifestColumns+` FROM manifests ORDER BY uploaded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifests: %w", err)
	}
	defer rows.Close()

	var manifests []model.Manifest
	for rows.Next() {
		m, scanErr := scanManifest(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan manifest: %w", scanErr)
		}
		manifests = append(manifests, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manifests: %w", err)
	}
	return manifests, nil
}

// UpdateManifestStatus moves a manifest to a new lifecycle state.
func (s *SQLiteStorage) UpdateManifestStatus(ctx context.Context, id int64, status model.ManifestStatus) error {
	return updateManifestStatus(ctx, s.db, id, status)
}

func (t *sqliteTransaction) UpdateManifestStatus(ctx context.Context, id int64, status model.ManifestStatus) error {
	return updateManifestStatus(ctx, t.tx, id, status)
}

func updateManifestStatus(ctx context.Context, db dbtx, id int64, status model.ManifestStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "manifest ID"); err != nil {
		return err
	}
	if err := validateManifestStatus(status); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `UPDATE manifests SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update manifest status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: manifest %d", ErrNotFound, id)
	}

	slog.Debug("manifest status updated", "id", id, "status", status)
	return nil
}

// SetManifestRowCount records the number of parsed rows.
func (s *SQLiteStorage) SetManifestRowCount(ctx context.Context, id int64, rowCount int) error {
	return setManifestRowCount(ctx, s.db, id, rowCount)
}

func (t *sqliteTransaction) SetManifestRowCount(ctx context.Context, id int64, rowCount int) error {
	return setManifestRowCount(ctx, t.tx, id, rowCount)
}

func setManifestRowCount(ctx context.Context, db dbtx, id int64, rowCount int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rowCount < 0 {
		return fmt.Errorf("%w: row count cannot be negative", ErrInvalidRequest)
	}
	if _, err := db.ExecContext(ctx, `UPDATE manifests SET row_count = ? WHERE id = ?`, rowCount, id); err != nil {
		return fmt.Errorf("failed to set manifest row count: %w", err)
	}
	return nil
}

// UpdateManifestCounts records per-stage processed and error counts.
func (s *SQLiteStorage) UpdateManifestCounts(ctx context.Context, id int64, processed, errors int) error {
	return updateManifestCounts(ctx, s.db, id, processed, errors)
}

func (t *sqliteTransaction) UpdateManifestCounts(ctx context.Context, id int64, processed, errors int) error {
	return updateManifestCounts(ctx, t.tx, id, processed, errors)
}

func updateManifestCounts(ctx context.Context, db dbtx, id int64, processed, errors int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifests SET processed_count = ?, error_count = ? WHERE id = ?`,
		processed, errors, id); err != nil {
		return fmt.Errorf("failed to update manifest counts: %w", err)
	}
	return nil
}

// SetManifestFailure marks a manifest failed and records the reason.
func (s *SQLiteStorage) SetManifestFailure(ctx context.Context, id int64, reason string) error {
	return setManifestFailure(ctx, s.db, id, reason)
}

func (t *sqliteTransaction) SetManifestFailure(ctx context.Context, id int64, reason string) error {
	return setManifestFailure(ctx, t.tx, id, reason)
}

func setManifestFailure(ctx context.Context, db dbtx, id int64, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifests SET status = ?, notes = ?, completed_at = ? WHERE id = ?`,
		model.ManifestFailed, reason, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark manifest failed: %w", err)
	}
	slog.Warn("manifest failed", "id", id, "reason", reason)
	return nil
}

// LinkManifestTemplate records the template used for this manifest.
func (s *SQLiteStorage) LinkManifestTemplate(ctx context.Context, id, templateID int64) error {
	return linkManifestTemplate(ctx, s.db, id, templateID)
}

func (t *sqliteTransaction) LinkManifestTemplate(ctx context.Context, id, templateID int64) error {
	return linkManifestTemplate(ctx, t.tx, id, templateID)
}

func linkManifestTemplate(ctx context.Context, db dbtx, id, templateID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `UPDATE manifests SET template_id = ? WHERE id = ?`, templateID, id); err != nil {
		return fmt.Errorf("failed to link manifest template: %w", err)
	}
	return nil
}

// CompleteManifest links the created batch and finalizes the manifest.
func (s *SQLiteStorage) CompleteManifest(ctx context.Context, id, batchID int64) error {
	return completeManifest(ctx, s.db, id, batchID)
}

func (t *sqliteTransaction) CompleteManifest(ctx context.Context, id, batchID int64) error {
	return completeManifest(ctx, t.tx, id, batchID)
}

func completeManifest(ctx context.Context, db dbtx, id, batchID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE manifests SET status = ?, batch_id = ?, completed_at = ? WHERE id = ?`,
		model.ManifestCompleted, batchID, time.Now(), id); err != nil {
		return fmt.Errorf("failed to complete manifest: %w", err)
	}
	slog.Info("manifest completed", "id", id, "batch_id", batchID)
	return nil
}
