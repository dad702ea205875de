package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage saved mapping templates",
	}
	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesShowCmd())
	return cmd
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved mapping templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := store.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No templates saved yet."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Mapping templates"))
			for _, template := range templates {
				fmt.Printf("  %-24s %d rules, updated %s\n",
					template.Name, len(template.Mappings), template.UpdatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func templatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a template's mapping rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			template, err := store.GetTemplateByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if template == nil {
				return fmt.Errorf("template %q not found", args[0])
			}

			fmt.Println(cli.FormatTitle(template.Name))
			if template.Description != "" {
				fmt.Println(cli.SubtleStyle.Render(template.Description))
			}
			for _, rule := range template.Mappings {
				marker := ""
				if rule.Required {
					marker = " (required)"
				}
				fmt.Printf("  %-30s → %s%s\n", rule.SourceColumn, rule.TargetField, marker)
			}
			return nil
		},
	}
}
