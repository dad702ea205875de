package model

import "time"

// ProductFamily is one entry in the shared product family catalog.
// The pipeline reads it by name lookup and fuzzy match, and creates new
// entries when classification finds a family the catalog lacks.
type ProductFamily struct {
	CreatedAt    time.Time
	Attributes   map[string]any
	Name         string
	SKU          string
	Description  string
	Manufacturer string
	Model        string
	ID           int64
}
