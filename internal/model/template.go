package model

import "time"

// ColumnMapping is one saved rule: a source spreadsheet column mapped to
// a canonical system field.
type ColumnMapping struct {
	SourceColumn    string
	TargetField     string
	GroupKey        string
	ID              int64
	TemplateID      int64
	ProcessingOrder int
	Required        bool
}

// Template is a reusable, named set of column mapping rules, created
// when a user opts to save a confirmed mapping. Headers remembers the
// original source columns in declaration order.
type Template struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	Description string
	Headers     []string
	Mappings    []ColumnMapping
	ID          int64
}

// MappingByColumn flattens the template rules into the column mapping
// shape the application service consumes.
func (t *Template) MappingByColumn() map[string]string {
	out := make(map[string]string, len(t.Mappings))
	for _, m := range t.Mappings {
		out[m.SourceColumn] = m.TargetField
	}
	return out
}
