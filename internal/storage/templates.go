package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/refurbd/palletflow/internal/model"
)

// SaveTemplate persists a mapping template. Saving under an existing
// name replaces that template's rules instead of duplicating it.
func (s *SQLiteStorage) SaveTemplate(ctx context.Context, template *model.Template) (*model.Template, error) {
	return saveTemplate(ctx, s.db, template)
}

func (t *sqliteTransaction) SaveTemplate(ctx context.Context, template *model.Template) (*model.Template, error) {
	return saveTemplate(ctx, t.tx, template)
}

func saveTemplate(ctx context.Context, db dbtx, template *model.Template) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("%w: template", ErrNilParameter)
	}
	if err := validateString(template.Name, "template name"); err != nil {
		return nil, err
	}

	headers, err := json.Marshal(template.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template headers: %w", err)
	}
	now := time.Now()

	existing, err := getTemplateByName(ctx, db, template.Name)
	if err != nil {
		return nil, err
	}

	saved := *template
	if existing != nil {
		if _, err := db.ExecContext(ctx,
			`UPDATE manifest_templates SET description = ?, headers = ?, updated_at = ? WHERE id = ?`,
			template.Description, string(headers), now, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to update template: %w", err)
		}
		if _, err := db.ExecContext(ctx,
			`DELETE FROM manifest_column_mappings WHERE template_id = ?`, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to clear template mappings: %w", err)
		}
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
		slog.Info("updated existing mapping template", "name", template.Name, "id", existing.ID)
	} else {
		result, insertErr := db.ExecContext(ctx,
			`INSERT INTO manifest_templates (name, description, headers, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			template.Name, template.Description, string(headers), now, now)
		if insertErr != nil {
			return nil, fmt.Errorf("failed to create template: %w", insertErr)
		}
		id, idErr := result.LastInsertId()
		if idErr != nil {
			return nil, fmt.Errorf("failed to get template ID: %w", idErr)
		}
		saved.ID = id
		saved.CreatedAt = now
		slog.Info("created mapping template", "name", template.Name, "id", id)
	}
	saved.UpdatedAt = now

	for idx := range template.Mappings {
		m := &template.Mappings[idx]
		if _, err := db.ExecContext(ctx,
			`INSERT INTO manifest_column_mappings (template_id, source_column, target_field, group_key, is_required, processing_order)
			VALUES (?, ?, ?, ?, ?, ?)`,
			saved.ID, m.SourceColumn, m.TargetField, m.GroupKey, m.Required, m.ProcessingOrder); err != nil {
			return nil, fmt.Errorf("failed to insert column mapping %q: %w", m.SourceColumn, err)
		}
	}

	saved.Mappings = template.Mappings
	return &saved, nil
}

// GetTemplateByName returns a template with its rules, or nil when no
// template has that name.
func (s *SQLiteStorage) GetTemplateByName(ctx context.Context, name string) (*model.Template, error) {
	return getTemplateByName(ctx, s.db, name)
}

func (t *sqliteTransaction) GetTemplateByName(ctx context.Context, name string) (*model.Template, error) {
	return getTemplateByName(ctx, t.tx, name)
}

func getTemplateByName(ctx context.Context, db dbtx, name string) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "template name"); err != nil {
		return nil, err
	}

	var tpl model.Template
	var description, headers sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, headers, created_at, updated_at FROM manifest_templates WHERE name = ?`,
		name).Scan(&tpl.ID, &tpl.Name, &description, &headers, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	tpl.Description = description.String
	if headers.Valid && headers.String != "" {
		if err := json.Unmarshal([]byte(headers.String), &tpl.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode template headers: %w", err)
		}
	}

	mappings, err := getTemplateMappings(ctx, db, tpl.ID)
	if err != nil {
		return nil, err
	}
	tpl.Mappings = mappings
	return &tpl, nil
}

func getTemplateMappings(ctx context.Context, db dbtx, templateID int64) ([]model.ColumnMapping, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, template_id, source_column, target_field, group_key, is_required, processing_order
		FROM manifest_column_mappings WHERE template_id = ?
		ORDER BY processing_order, source_column`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column mappings: %w", err)
	}
	defer rows.Close()

	var mappings []model.ColumnMapping
	for rows.Next() {
		var m model.ColumnMapping
		var groupKey sql.NullString
		if err := rows.Scan(&m.ID, &m.TemplateID, &m.SourceColumn, &m.TargetField,
			&groupKey, &m.Required, &m.ProcessingOrder); err != nil {
			return nil, fmt.Errorf("failed to scan column mapping: %w", err)
		}
		m.GroupKey = groupKey.String
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column mappings: %w", err)
	}
	return mappings, nil
}

// ListTemplates returns all templates with their rules, sorted by name.
func (s *SQLiteStorage) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return listTemplates(ctx, s.db)
}

func (t *sqliteTransaction) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return listTemplates(ctx, t.tx)
}

func listTemplates(ctx context.Context, db dbtx) ([]model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, headers, created_at, updated_at FROM manifest_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var tpl model.Template
		var description, headers sql.NullString
		if err := rows.Scan(&tpl.ID, &tpl.Name, &description, &headers, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		tpl.Description = description.String
		if headers.Valid && headers.String != "" {
			if err := json.Unmarshal([]byte(headers.String), &tpl.Headers); err != nil {
				return nil, fmt.Errorf("failed to decode template headers: %w", err)
			}
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	for i := range templates {
		mappings, err := getTemplateMappings(ctx, db, templates[i].ID)
		if err != nil {
			return nil, err
		}
		templates[i].Mappings = mappings
	}
	return templates, nil
}
