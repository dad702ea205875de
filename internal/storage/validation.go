package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/refurbd/palletflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidItem    = errors.New("invalid manifest item")
	ErrInvalidGroup   = errors.New("invalid manifest group")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateName  = errors.New("name already exists")
	ErrInvalidRequest = errors.New("invalid request")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures an identifier is positive.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidRequest, paramName)
	}
	return nil
}

// validateItems validates a slice of manifest items before a bulk write.
func validateItems(items []model.Item) error {
	if items == nil {
		return fmt.Errorf("%w: items", ErrNilParameter)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: items", ErrEmptySlice)
	}
	for i := range items {
		if items[i].ManifestID <= 0 {
			return fmt.Errorf("%w: item at index %d missing manifest ID", ErrInvalidItem, i)
		}
		if items[i].RowNumber <= 0 {
			return fmt.Errorf("%w: item at index %d has non-positive row number", ErrInvalidItem, i)
		}
	}
	return nil
}

// validateGroups validates a slice of groups before a bulk write.
func validateGroups(groups []model.Group) error {
	if len(groups) == 0 {
		return fmt.Errorf("%w: groups", ErrEmptySlice)
	}
	for i := range groups {
		if groups[i].ManifestID <= 0 {
			return fmt.Errorf("%w: group at index %d missing manifest ID", ErrInvalidGroup, i)
		}
		if groups[i].GroupKey == "" {
			return fmt.Errorf("%w: group at index %d missing group key", ErrInvalidGroup, i)
		}
	}
	return nil
}

// validateManifestStatus rejects unknown lifecycle states.
func validateManifestStatus(status model.ManifestStatus) error {
	switch status {
	case model.ManifestPending, model.ManifestMapping, model.ManifestValidation,
		model.ManifestProcessing, model.ManifestCompleted, model.ManifestFailed:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
}
