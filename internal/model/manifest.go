// Package model defines the core domain types for the receiving pipeline.
package model

import "time"

// ManifestStatus tracks a manifest through the processing pipeline.
type ManifestStatus string

// Manifest lifecycle states, in pipeline order.
const (
	ManifestPending    ManifestStatus = "pending"
	ManifestMapping    ManifestStatus = "mapping"
	ManifestValidation ManifestStatus = "validation"
	ManifestProcessing ManifestStatus = "processing"
	ManifestCompleted  ManifestStatus = "completed"
	ManifestFailed     ManifestStatus = "failed"
)

// Manifest is the master record for one uploaded lot of incoming equipment.
type Manifest struct {
	UploadedAt     time.Time
	CompletedAt    *time.Time
	TemplateID     *int64
	BatchID        *int64
	Name           string
	Status         ManifestStatus
	FileType       string
	Reference      string
	Notes          string
	ID             int64
	RowCount       int
	ProcessedCount int
	ErrorCount     int
	HasHeader      bool
}

// IsTerminal reports whether the manifest has finished processing.
func (m *Manifest) IsTerminal() bool {
	return m.Status == ManifestCompleted || m.Status == ManifestFailed
}
