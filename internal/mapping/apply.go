package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

// Applier projects confirmed column mappings onto manifest items.
type Applier struct {
	storage service.Storage
}

// NewApplier creates an Applier backed by the given storage.
func NewApplier(storage service.Storage) *Applier {
	return &Applier{storage: storage}
}

// ApplyOptions control template persistence during application.
type ApplyOptions struct {
	TemplateName        string
	TemplateDescription string
	SaveAsTemplate      bool
}

// Apply copies raw values through the column mapping into each item's
// mapped data and typed attributes. Individual bad rows are marked
// error without aborting the run; the manifest advances from mapping to
// validation. Coverage and type problems surface as warnings, not
// errors.
func (a *Applier) Apply(ctx context.Context, manifest *model.Manifest, columnMapping map[string]string, opts ApplyOptions) (*service.ApplyResult, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if manifest.Status != model.ManifestMapping {
		return nil, fmt.Errorf("manifest %d is %s, expected mapping", manifest.ID, manifest.Status)
	}
	if len(columnMapping) == 0 {
		return nil, fmt.Errorf("column mapping is empty")
	}

	active := activeMappings(columnMapping)
	if len(active) == 0 {
		return nil, fmt.Errorf("column mapping assigns no fields")
	}

	result := &service.ApplyResult{}
	result.Warnings = append(result.Warnings, coverageWarnings(active)...)

	items, err := a.storage.GetItems(ctx, manifest.ID, service.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("manifest %d has no items to map", manifest.ID)
	}

	tx, err := a.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	priceFailures := 0
	for i := range items {
		item := &items[i]
		mapped, priceOK := applyToItem(item, active)
		if mapped {
			item.Status = model.ItemMapped
			item.ErrorMessage = ""
			result.MappedCount++
		} else {
			item.Status = model.ItemError
			item.ErrorMessage = "no mapped columns present in row"
			result.ErrorCount++
		}
		if !priceOK {
			priceFailures++
		}
		if err := tx.UpdateItemMapping(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to update item %d: %w", item.RowNumber, err)
		}
	}
	if priceFailures > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d rows have unit_price values that could not be parsed as a number", priceFailures))
	}

	if opts.SaveAsTemplate {
		template, saveErr := saveMappingTemplate(ctx, tx, items[0], columnMapping, opts)
		if saveErr != nil {
			return nil, saveErr
		}
		if linkErr := tx.LinkManifestTemplate(ctx, manifest.ID, template.ID); linkErr != nil {
			return nil, linkErr
		}
		result.TemplateID = &template.ID
	}

	if err := tx.UpdateManifestCounts(ctx, manifest.ID, result.MappedCount, result.ErrorCount); err != nil {
		return nil, err
	}
	if err := tx.UpdateManifestStatus(ctx, manifest.ID, model.ManifestValidation); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit mapping: %w", err)
	}

	manifest.Status = model.ManifestValidation
	manifest.ProcessedCount = result.MappedCount
	manifest.ErrorCount = result.ErrorCount

	slog.Info("applied column mapping",
		"manifest_id", manifest.ID,
		"mapped", result.MappedCount,
		"errors", result.ErrorCount,
		"warnings", len(result.Warnings))
	return result, nil
}

// TemplateMappings loads a saved template's rules as a column mapping.
func (a *Applier) TemplateMappings(ctx context.Context, name string) (map[string]string, error) {
	template, err := a.storage.GetTemplateByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return template.MappingByColumn(), nil
}

// activeMappings drops not_mapped and empty targets, and rejects
// unknown field values.
func activeMappings(columnMapping map[string]string) map[string]string {
	active := make(map[string]string, len(columnMapping))
	for column, field := range columnMapping {
		if field == "" || field == FieldNotMapped {
			continue
		}
		if _, ok := FieldByValue(field); !ok {
			continue
		}
		active[column] = field
	}
	return active
}

func coverageWarnings(active map[string]string) []string {
	covered := make(map[string]bool, len(active))
	for _, field := range active {
		covered[field] = true
	}

	var missing []string
	for _, field := range RequiredFields() {
		if !covered[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []string{fmt.Sprintf("required fields not mapped: %s", strings.Join(missing, ", "))}
}

// applyToItem writes mapped values into one item. Returns whether any
// field was written and whether the price value (if mapped and present)
// parsed cleanly.
func applyToItem(item *model.Item, active map[string]string) (mapped, priceOK bool) {
	item.MappedData = make(map[string]any, len(active))
	priceOK = true

	for column, field := range active {
		value, ok := item.RawData[column]
		if !ok || value == nil {
			continue
		}
		item.MappedData[field] = value
		item.SetField(field, value)
		mapped = true

		if field == "unit_price" {
			if _, parsed := model.ParsePrice(value); !parsed {
				priceOK = false
			}
		}
	}
	return mapped, priceOK
}

func saveMappingTemplate(ctx context.Context, tx service.Transaction, sample model.Item, columnMapping map[string]string, opts ApplyOptions) (*model.Template, error) {
	if opts.TemplateName == "" {
		return nil, fmt.Errorf("template name is required to save a template")
	}

	headers := make([]string, 0, len(sample.RawData))
	for header := range sample.RawData {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	columns := make([]string, 0, len(columnMapping))
	for column := range columnMapping {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	template := &model.Template{
		Name:        opts.TemplateName,
		Description: opts.TemplateDescription,
		Headers:     headers,
	}
	for i, column := range columns {
		field := columnMapping[column]
		if field == "" {
			field = FieldNotMapped
		}
		rule := model.ColumnMapping{
			SourceColumn:    column,
			TargetField:     field,
			ProcessingOrder: i,
		}
		if spec, ok := FieldByValue(field); ok {
			rule.GroupKey = spec.Group
			rule.Required = spec.Required
		}
		template.Mappings = append(template.Mappings, rule)
	}

	saved, err := tx.SaveTemplate(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("failed to save mapping template: %w", err)
	}
	return saved, nil
}
