package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/model"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group <manifest-id>",
		Short: "Group identical items in a manifest",
		Long: `Partition the manifest's mapped items into groups of identical units.
Grouping always rebuilds from scratch: running it twice with the same
fields produces the same partition.`,
		Args: cobra.ExactArgs(1),
		RunE: runGroup,
	}

	cmd.Flags().StringSlice("fields", nil,
		fmt.Sprintf("grouping fields (default: %s)", strings.Join(model.DefaultGroupFields, ",")))

	return cmd
}

func runGroup(cmd *cobra.Command, args []string) error {
	manifestID, err := parseManifestID(args[0])
	if err != nil {
		return err
	}
	fields, _ := cmd.Flags().GetStringSlice("fields")

	runner, store, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := runner.Group(cmd.Context(), manifestID, fields)
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderSummary("Groups rebuilt",
		"Groups", fmt.Sprintf("%d", result.GroupCount),
		"Items grouped", fmt.Sprintf("%d", result.ItemCount),
		"Run ID", result.RunID,
	))

	groups, err := store.GetGroups(cmd.Context(), manifestID)
	if err != nil {
		return err
	}
	for _, group := range groups {
		label := group.DisplayName()
		fmt.Printf("  %4d × %s\n", group.Quantity, label)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Next: palletflow classify %d", manifestID)))
	return nil
}
