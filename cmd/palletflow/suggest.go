package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/mapping"
	"github.com/refurbd/palletflow/internal/service"
)

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <manifest-id>",
		Short: "Suggest column mappings for a manifest",
		Long: `Analyze the manifest's columns and propose a target field for each,
based on the canonical field catalog. The output is the starting point
for palletflow map.`,
		Args: cobra.ExactArgs(1),
		RunE: runSuggest,
	}
}

func runSuggest(cmd *cobra.Command, args []string) error {
	manifestID, err := parseManifestID(args[0])
	if err != nil {
		return err
	}

	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	items, err := store.GetItems(cmd.Context(), manifestID, service.ItemFilter{Limit: 1})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("manifest %d has no items; run palletflow ingest first", manifestID)
	}

	columns := make([]string, 0, len(items[0].RawData))
	for column := range items[0].RawData {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	suggestions := mapping.Suggest(columns, mapping.Fields)

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Suggested mappings for manifest %d", manifestID)))
	matched := 0
	for _, column := range columns {
		field := suggestions[column]
		if field == "" {
			fmt.Printf("  %-30s %s\n", column, cli.SubtleStyle.Render("(unmatched)"))
			continue
		}
		fmt.Printf("  %-30s %s\n", column, field)
		matched++
	}
	fmt.Println()
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d of %d columns matched", matched, len(columns))))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Apply with: palletflow map %d --set column=field,...", manifestID)))
	return nil
}
