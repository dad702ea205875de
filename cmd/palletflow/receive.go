package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/storage"
)

func receiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive <family-name>",
		Short: "Receive stock for a product family outside a manifest",
		Long: `Create a one-off receiving batch for a product family, for stock that
arrives without a manifest. Records the batch item and an inventory
receipt in one transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: runReceive,
	}

	cmd.Flags().Int("quantity", 0, "units received (required)")
	cmd.Flags().String("location", "", "receiving location (required)")
	cmd.Flags().String("reference", "", "supplier or PO reference")
	cmd.Flags().String("created-by", "", "operator name")
	cmd.Flags().Float64("unit-cost", 0, "per-unit cost")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

func runReceive(cmd *cobra.Command, args []string) error {
	familyName := args[0]
	quantity, _ := cmd.Flags().GetInt("quantity")
	location, _ := cmd.Flags().GetString("location")
	reference, _ := cmd.Flags().GetString("reference")
	createdBy, _ := cmd.Flags().GetString("created-by")
	unitCost, _ := cmd.Flags().GetFloat64("unit-cost")

	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	ctx := cmd.Context()

	family, err := store.FindFamilyByName(ctx, familyName)
	if err != nil {
		return err
	}
	if family == nil {
		return fmt.Errorf("product family %q not found", familyName)
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	receiving := storage.NewReceiving(tx)
	ledger := storage.NewLedger(tx)

	batch, err := receiving.CreateBatch(ctx, reference, location, createdBy)
	if err != nil {
		return err
	}

	item := &model.BatchItem{
		BatchID:         batch.ID,
		ProductFamilyID: family.ID,
		Quantity:        quantity,
		SourceType:      "manual",
	}
	if cmd.Flags().Changed("unit-cost") {
		item.UnitCost = &unitCost
	}
	if _, err := receiving.CreateBatchItem(ctx, item); err != nil {
		return err
	}

	if _, err := ledger.Receive(ctx, family.ID, location, quantity, "manual receipt", batch.BatchCode); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	fmt.Println(cli.RenderSummary("Stock received",
		"Family", family.Name,
		"Quantity", fmt.Sprintf("%d", quantity),
		"Location", location,
		"Batch code", batch.BatchCode,
	))
	return nil
}
