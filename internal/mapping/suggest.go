package mapping

import "strings"

// Suggest proposes a target field from the catalog for each source
// column. The result maps every input column; unmatched columns map to
// "". The function is pure and deterministic: ties break on catalog
// order, and the "not_mapped" entry never wins a suggestion.
func Suggest(columns []string, fields []FieldSpec) map[string]string {
	suggestions := make(map[string]string, len(columns))

	for _, column := range columns {
		suggestions[column] = suggestField(column, fields)
	}

	for _, column := range columns {
		if suggestions[column] != "" {
			continue
		}
		suggestions[column] = suggestCompound(column)
	}

	return suggestions
}

// normalizeColumn folds a header for pattern comparison: lowercase with
// spaces, underscores and hyphens removed.
func normalizeColumn(column string) string {
	normalized := strings.ToLower(column)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	return normalized
}

func suggestField(column string, fields []FieldSpec) string {
	normalized := normalizeColumn(column)
	if normalized == "" {
		return ""
	}

	for _, field := range fields {
		if field.Value == FieldNotMapped {
			continue
		}
		for _, pattern := range field.Patterns {
			p := normalizeColumn(pattern)
			if p == normalized || strings.Contains(normalized, p) || strings.Contains(p, normalized) {
				return field.Value
			}
		}
	}
	return ""
}

// suggestCompound handles headers the pattern tables miss, like
// "Capacity (RAM)" or "Total $".
func suggestCompound(column string) string {
	lower := strings.ToLower(column)

	if strings.Contains(lower, "capacity") || strings.Contains(lower, "size") {
		if containsAny(lower, "ram", "memory", "mem") {
			return "memory"
		}
		if containsAny(lower, "disk", "drive", "storage", "ssd", "hdd") {
			return "storage"
		}
		return ""
	}

	if containsAny(lower, "price", "cost", "$", "amount", "sale", "retail") {
		return "unit_price"
	}
	return ""
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
