package model

import (
	"strconv"
	"strings"
	"time"
)

// RawRow is one parsed spreadsheet row keyed by source column header.
type RawRow map[string]any

// ItemStatus tracks a single manifest row through mapping and receiving.
type ItemStatus string

// Item lifecycle states.
const (
	ItemPending   ItemStatus = "pending"
	ItemMapped    ItemStatus = "mapped"
	ItemValidated ItemStatus = "validated"
	ItemError     ItemStatus = "error"
	ItemProcessed ItemStatus = "processed"
)

// Item is one source row from a manifest file. RawData holds the row
// verbatim; MappedData holds the projection through the confirmed column
// mapping. The typed fields mirror canonical mapping targets so later
// stages get typed access without re-parsing JSON.
type Item struct {
	RawData             map[string]any
	MappedData          map[string]any
	ProcessedAt         *time.Time
	UnitPrice           *float64
	GroupID             *int64
	FamilyMappedGroupID *int64
	BatchItemID         *int64
	Barcode             string
	Serial              string
	Manufacturer        string
	Model               string
	Processor           string
	CPU                 string
	Memory              string
	Storage             string
	Battery             string
	ConditionGrade      string
	ConditionNotes      string
	ErrorMessage        string
	Status              ItemStatus
	ID                  int64
	ManifestID          int64
	RowNumber           int
	HasBattery          bool
}

// IsFamilyMapped reports whether this item reaches a product family
// through its group. Uses the denormalized reference, not a join.
func (i *Item) IsFamilyMapped() bool {
	return i.FamilyMappedGroupID != nil
}

// EffectiveStatus is the status surfaced to callers: items mapped to a
// family through their group read as "mapped" regardless of the raw
// per-row status.
func (i *Item) EffectiveStatus() ItemStatus {
	if i.FamilyMappedGroupID != nil {
		return ItemMapped
	}
	return i.Status
}

// SetField assigns a canonical field value to the matching typed
// attribute. Returns false when the field has no typed column.
func (i *Item) SetField(field string, value any) bool {
	text := stringValue(value)
	switch field {
	case "barcode":
		i.Barcode = text
	case "serial":
		i.Serial = text
	case "manufacturer":
		i.Manufacturer = text
	case "model":
		i.Model = text
	case "processor":
		i.Processor = text
	case "cpu":
		i.CPU = text
	case "memory":
		i.Memory = text
	case "storage":
		i.Storage = text
	case "battery":
		i.Battery = text
		i.HasBattery = text != ""
	case "condition_grade":
		i.ConditionGrade = text
	case "condition_notes":
		i.ConditionNotes = text
	case "unit_price":
		if price, ok := ParsePrice(value); ok {
			i.UnitPrice = &price
		}
	default:
		return false
	}
	return true
}

// FieldValue resolves a canonical field for grouping: mapped data first,
// then the typed attribute, then empty string.
func (i *Item) FieldValue(field string) string {
	if i.MappedData != nil {
		if v, ok := i.MappedData[field]; ok && v != nil {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	switch field {
	case "barcode":
		return i.Barcode
	case "serial":
		return i.Serial
	case "manufacturer":
		return i.Manufacturer
	case "model":
		return i.Model
	case "processor":
		return i.Processor
	case "cpu":
		return i.CPU
	case "memory":
		return i.Memory
	case "storage":
		return i.Storage
	case "battery":
		return i.Battery
	case "condition_grade":
		return i.ConditionGrade
	case "condition_notes":
		return i.ConditionNotes
	case "unit_price":
		if i.UnitPrice != nil {
			return strconv.FormatFloat(*i.UnitPrice, 'f', -1, 64)
		}
	}
	return ""
}

// ParsePrice converts a raw spreadsheet value into a price. Accepts
// numbers and strings with currency symbols or thousands separators.
func ParsePrice(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := strings.TrimSpace(v)
		cleaned = strings.TrimLeft(cleaned, "$€£ ")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
