package service

import "github.com/refurbd/palletflow/internal/model"

// ApplyResult reports the outcome of applying a column mapping.
type ApplyResult struct {
	TemplateID  *int64
	Warnings    []string
	MappedCount int
	ErrorCount  int
}

// GroupResult reports the outcome of a grouping run.
type GroupResult struct {
	RunID      string
	GroupCount int
	ItemCount  int
}

// ReviewEntry is one group whose classification needs a human decision.
type ReviewEntry struct {
	FamilyName string
	Reason     string
	GroupID    int64
	Confidence float64
}

// ClassifyStats reports the outcome of classifying a manifest's groups.
type ClassifyStats struct {
	Review         []ReviewEntry
	Processed      int
	Assigned       int
	NewFamilies    int
	SimilarMatches int
	NeedsReview    int
	Skipped        int
}

// MaterializeResult reports the outcome of batch materialization.
type MaterializeResult struct {
	Batch        *model.ReceiptBatch
	Warnings     []string
	ItemsCreated int
}
