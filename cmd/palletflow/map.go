package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/mapping"
	"github.com/refurbd/palletflow/internal/service"
)

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <manifest-id>",
		Short: "Apply a column mapping to a manifest",
		Long: `Project the confirmed column mapping onto every row of the manifest,
filling the canonical item fields. The mapping comes from --set pairs,
a saved template, or the automatic suggestions (--auto).`,
		Args: cobra.ExactArgs(1),
		RunE: runMap,
	}

	cmd.Flags().StringSlice("set", nil, "column=field pairs, e.g. --set 'Serial Number=serial,Brand=manufacturer'")
	cmd.Flags().String("template", "", "apply a saved mapping template by name")
	cmd.Flags().Bool("auto", false, "use the automatic suggestions as the mapping")
	cmd.Flags().String("save-template", "", "save the applied mapping as a template with this name")
	cmd.Flags().String("template-description", "", "description for the saved template")

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	manifestID, err := parseManifestID(args[0])
	if err != nil {
		return err
	}
	pairs, _ := cmd.Flags().GetStringSlice("set")
	templateName, _ := cmd.Flags().GetString("template")
	auto, _ := cmd.Flags().GetBool("auto")
	saveTemplate, _ := cmd.Flags().GetString("save-template")
	templateDescription, _ := cmd.Flags().GetString("template-description")

	runner, store, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var columnMapping map[string]string
	switch {
	case templateName != "":
		columnMapping, err = runner.Applier.TemplateMappings(cmd.Context(), templateName)
	case auto:
		columnMapping, err = suggestedMapping(cmd, store, manifestID)
	case len(pairs) > 0:
		columnMapping, err = parseMappingPairs(pairs)
	default:
		return fmt.Errorf("specify a mapping via --set, --template, or --auto")
	}
	if err != nil {
		return err
	}

	result, err := runner.ApplyMapping(cmd.Context(), manifestID, columnMapping, mapping.ApplyOptions{
		SaveAsTemplate:      saveTemplate != "",
		TemplateName:        saveTemplate,
		TemplateDescription: templateDescription,
	})
	if err != nil {
		return err
	}

	summary := []string{
		"Mapped rows", fmt.Sprintf("%d", result.MappedCount),
		"Error rows", fmt.Sprintf("%d", result.ErrorCount),
	}
	if result.TemplateID != nil {
		summary = append(summary, "Template", fmt.Sprintf("%s (#%d)", saveTemplate, *result.TemplateID))
	}
	fmt.Println(cli.RenderSummary("Mapping applied", summary...))
	if out := cli.RenderWarnings(result.Warnings); out != "" {
		fmt.Print(out)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Next: palletflow group %d", manifestID)))
	return nil
}

// suggestedMapping runs the suggestion engine over the manifest's
// columns and keeps the matched ones.
func suggestedMapping(cmd *cobra.Command, store service.Storage, manifestID int64) (map[string]string, error) {
	items, err := store.GetItems(cmd.Context(), manifestID, service.ItemFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("manifest %d has no items", manifestID)
	}

	columns := make([]string, 0, len(items[0].RawData))
	for column := range items[0].RawData {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	columnMapping := make(map[string]string)
	for column, field := range mapping.Suggest(columns, mapping.Fields) {
		if field != "" {
			columnMapping[column] = field
		}
	}
	if len(columnMapping) == 0 {
		return nil, fmt.Errorf("no columns could be matched automatically; use --set")
	}
	return columnMapping, nil
}

func parseMappingPairs(pairs []string) (map[string]string, error) {
	columnMapping := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		column, field, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return nil, fmt.Errorf("invalid mapping pair %q, expected column=field", pair)
		}
		columnMapping[strings.TrimSpace(column)] = strings.TrimSpace(field)
	}
	return columnMapping, nil
}
