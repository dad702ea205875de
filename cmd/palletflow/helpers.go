package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/config"
	"github.com/refurbd/palletflow/internal/pipeline"
	"github.com/refurbd/palletflow/internal/storage"
)

// openStorage opens the configured database with migrations applied.
// Callers own the returned storage and must Close it.
func openStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// newRunner opens storage and wires the stage runner over it.
func newRunner(cmd *cobra.Command) (*pipeline.Runner, *storage.SQLiteStorage, error) {
	store, err := openStorage(cmd)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewRunner(store), store, nil
}

func parseManifestID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid manifest ID %q", arg)
	}
	return id, nil
}
