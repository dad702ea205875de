package model

import "time"

// ReceiptBatch is the receiving-side record created when a manifest is
// materialized. One batch per manifest.
type ReceiptBatch struct {
	ReceiptDate   time.Time
	BatchCode     string
	Reference     string
	Location      string
	Notes         string
	CreatedBy     string
	ID            int64
	ItemCount     int
	TotalQuantity int
	TotalCost     float64
}

// BatchItem corresponds 1:1 with one resolved manifest group.
type BatchItem struct {
	UnitCost        *float64
	TotalCost       *float64
	Notes           string
	SourceType      string
	SourceID        string
	ID              int64
	BatchID         int64
	ProductFamilyID int64
	Quantity        int
	RequiresUnitQC  bool
}

// InventoryReceipt is one audit-trail row in the inventory ledger,
// written when a batch item is received into stock.
type InventoryReceipt struct {
	CreatedAt       time.Time
	Location        string
	Reason          string
	Reference       string
	ID              int64
	ProductFamilyID int64
	Quantity        int
}
