package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/classify"
	"github.com/refurbd/palletflow/internal/cli"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <manifest-id>",
		Short: "Resolve product families for a manifest's groups",
		Long: `Classify each group's product name and link it to a product family.
Existing families are matched exactly, then by name similarity; new
families are created for confident classifications unless
--no-auto-create is set. Low-confidence groups are listed for review.`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().Bool("no-auto-create", false, "never create families; route unmatched groups to review")
	cmd.Flags().Float64("confidence", 0.7, "minimum confidence to assign a family")
	cmd.Flags().Float64("similarity", 0.8, "minimum name similarity to reuse an existing family")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	manifestID, err := parseManifestID(args[0])
	if err != nil {
		return err
	}
	noAutoCreate, _ := cmd.Flags().GetBool("no-auto-create")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	similarity, _ := cmd.Flags().GetFloat64("similarity")

	runner, store, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := runner.Classify(cmd.Context(), manifestID, classify.ResolveOptions{
		AutoCreate:          !noAutoCreate,
		ConfidenceThreshold: confidence,
		SimilarityThreshold: similarity,
	})
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderSummary("Family classification",
		"Groups processed", fmt.Sprintf("%d", stats.Processed),
		"Assigned", fmt.Sprintf("%d", stats.Assigned),
		"New families", fmt.Sprintf("%d", stats.NewFamilies),
		"Similar matches", fmt.Sprintf("%d", stats.SimilarMatches),
		"Needs review", fmt.Sprintf("%d", stats.NeedsReview),
		"Skipped", fmt.Sprintf("%d", stats.Skipped),
	))

	if len(stats.Review) > 0 {
		fmt.Println(cli.FormatTitle("Needs review"))
		for _, entry := range stats.Review {
			fmt.Printf("  group %d → %q (%.2f): %s\n",
				entry.GroupID, entry.FamilyName, entry.Confidence, entry.Reason)
		}
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Next: palletflow batch %d --location <loc>", manifestID)))
	return nil
}
