package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// groupKeyVersion is baked into every group key so that keys stay
// comparable across releases. Bump it if the digest input ever changes.
const groupKeyVersion = "v1"

// DefaultGroupFields is the field set used for grouping when the caller
// does not supply one.
var DefaultGroupFields = []string{
	"manufacturer", "model", "processor", "memory", "storage", "condition_grade",
}

// GroupKey computes the canonical, versioned digest for an ordered list
// of grouping-field values. Values are trimmed and lowercased first, so
// the key is stable across row order and cosmetic casing differences.
func GroupKey(values []string) string {
	h := sha256.New()
	h.Write([]byte(groupKeyVersion))
	for _, v := range values {
		h.Write([]byte{0x1f})
		h.Write([]byte(strings.ToLower(strings.TrimSpace(v))))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GroupStats summarizes the variance inside a group so reviewers can
// spot rows that were lumped together despite differing specs.
type GroupStats struct {
	MemoryVariations      map[string]int `json:"memory_variations,omitempty"`
	StorageVariations     map[string]int `json:"storage_variations,omitempty"`
	ConditionDistribution map[string]int `json:"condition_distribution,omitempty"`
	RowNumbers            []int          `json:"row_numbers,omitempty"`
}

// GroupMetadata is the free-form per-group record persisted as JSON:
// which fields produced the grouping, the run that produced it, and the
// per-field variance snapshot.
type GroupMetadata struct {
	Attributes   map[string]string `json:"attributes,omitempty"`
	GroupFields  []string          `json:"group_fields,omitempty"`
	RunID        string            `json:"run_id,omitempty"`
	AvgUnitPrice *float64          `json:"avg_unit_price,omitempty"`
	Stats        GroupStats        `json:"stats"`
}

// Group is an equivalence class of manifest items sharing the grouping
// field values. Manufacturer and model are promoted out of the metadata
// for indexing; everything else lives in Metadata.
type Group struct {
	Metadata        GroupMetadata
	GroupKey        string
	Manufacturer    string
	Model           string
	ProductFamilyID *int64
	BatchItemID     *int64
	ID              int64
	ManifestID      int64
	Quantity        int
}

// DisplayName is the label used for a group in listings and as the
// classifier input when no richer product name is available.
func (g *Group) DisplayName() string {
	name := strings.TrimSpace(g.Manufacturer + " " + g.Model)
	if name == "" {
		return "group " + g.GroupKey[:12]
	}
	return name
}
