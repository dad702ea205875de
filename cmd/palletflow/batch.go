package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/batch"
	"github.com/refurbd/palletflow/internal/cli"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest-id>",
		Short: "Materialize a manifest into a receiving batch",
		Long: `Create a receiving batch from the manifest's family-resolved groups:
one batch item per group, inventory receipts in the ledger, and the
manifest closed as completed. Groups still missing a family are skipped
with a warning.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().String("location", "", "receiving location (required)")
	cmd.Flags().String("reference", "", "batch reference (default: manifest reference)")
	cmd.Flags().String("notes", "", "batch notes")
	cmd.Flags().String("created-by", "", "operator name")
	cmd.Flags().Float64("unit-cost", 0, "override per-unit cost on every batch item")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifestID, err := parseManifestID(args[0])
	if err != nil {
		return err
	}
	location, _ := cmd.Flags().GetString("location")
	reference, _ := cmd.Flags().GetString("reference")
	notes, _ := cmd.Flags().GetString("notes")
	createdBy, _ := cmd.Flags().GetString("created-by")
	unitCost, _ := cmd.Flags().GetFloat64("unit-cost")

	opts := batch.MaterializeOptions{
		Reference: reference,
		Notes:     notes,
		CreatedBy: createdBy,
	}
	if cmd.Flags().Changed("unit-cost") {
		opts.UnitCostOverride = &unitCost
	}

	runner, store, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := runner.Materialize(cmd.Context(), manifestID, location, opts)
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderSummary("Receiving batch created",
		"Batch code", result.Batch.BatchCode,
		"Location", result.Batch.Location,
		"Batch items", fmt.Sprintf("%d", result.ItemsCreated),
	))
	if out := cli.RenderWarnings(result.Warnings); out != "" {
		fmt.Print(out)
	}
	fmt.Println(cli.FormatSuccess("Manifest completed"))
	return nil
}
