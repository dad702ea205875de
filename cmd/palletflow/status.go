package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/model"
	"github.com/refurbd/palletflow/internal/service"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [manifest-id]",
		Short: "Show manifest status",
		Long: `Without arguments, lists recent manifests. With a manifest ID, shows
its lifecycle state, counts, and groups.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatus,
	}
	cmd.Flags().Int("limit", 20, "number of manifests to list")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	ctx := cmd.Context()

	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		manifests, listErr := store.ListManifests(ctx, limit)
		if listErr != nil {
			return listErr
		}
		if len(manifests) == 0 {
			fmt.Println(cli.SubtleStyle.Render("No manifests yet. Start with: palletflow ingest <file>"))
			return nil
		}
		fmt.Println(cli.FormatTitle("Manifests"))
		for _, manifest := range manifests {
			fmt.Printf("  #%-5d %-30s %-12s %4d rows  %s\n",
				manifest.ID, manifest.Name, manifest.Status,
				manifest.RowCount, manifest.UploadedAt.Format("2006-01-02 15:04"))
		}
		return nil
	}

	manifestID, err := parseManifestID(args[0])
	if err != nil {
		return err
	}
	manifest, err := store.GetManifest(ctx, manifestID)
	if err != nil {
		return err
	}
	if manifest == nil {
		return fmt.Errorf("manifest %d not found", manifestID)
	}

	pairs := []string{
		"Name", manifest.Name,
		"Status", string(manifest.Status),
		"Rows", fmt.Sprintf("%d", manifest.RowCount),
		"Processed", fmt.Sprintf("%d", manifest.ProcessedCount),
		"Errors", fmt.Sprintf("%d", manifest.ErrorCount),
		"Uploaded", manifest.UploadedAt.Format("2006-01-02 15:04"),
	}
	if manifest.Reference != "" {
		pairs = append(pairs, "Reference", manifest.Reference)
	}
	if manifest.BatchID != nil {
		pairs = append(pairs, "Batch ID", fmt.Sprintf("%d", *manifest.BatchID))
	}
	fmt.Println(cli.RenderSummary(fmt.Sprintf("Manifest #%d", manifest.ID), pairs...))

	groups, err := store.GetGroups(ctx, manifestID)
	if err != nil {
		return err
	}
	if len(groups) > 0 {
		fmt.Println(cli.FormatTitle("Groups"))
		for _, group := range groups {
			familyNote := cli.SubtleStyle.Render("(no family)")
			if group.ProductFamilyID != nil {
				familyNote = fmt.Sprintf("family #%d", *group.ProductFamilyID)
			}
			fmt.Printf("  %4d × %-40s %s\n", group.Quantity, group.DisplayName(), familyNote)
		}
	}

	errorItems, err := store.GetItems(ctx, manifestID, service.ItemFilter{Status: model.ItemError, Limit: 5})
	if err != nil {
		return err
	}
	if len(errorItems) > 0 {
		fmt.Println(cli.FormatTitle("Rows with errors"))
		for _, item := range errorItems {
			fmt.Printf("  row %d: %s\n", item.RowNumber, item.ErrorMessage)
		}
	}
	return nil
}
