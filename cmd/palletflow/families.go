package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/classify"
	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/model"
)

func familiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "Manage the product family catalog",
	}
	cmd.AddCommand(familiesListCmd())
	cmd.AddCommand(familiesAddCmd())
	cmd.AddCommand(familiesClassifyCmd())
	return cmd
}

func familiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List product families",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			families, err := store.ListFamilies(cmd.Context())
			if err != nil {
				return err
			}
			if len(families) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No product families yet."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Product families"))
			for _, family := range families {
				line := fmt.Sprintf("  #%-5d %s", family.ID, family.Name)
				if family.SKU != "" {
					line += cli.SubtleStyle.Render(" [" + family.SKU + "]")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func familiesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a product family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			sku, _ := cmd.Flags().GetString("sku")

			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			family, err := store.CreateFamily(cmd.Context(), &model.ProductFamily{
				Name:        args[0],
				Description: description,
				SKU:         sku,
			})
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created family #%d %s", family.ID, family.Name)))
			return nil
		},
	}
	cmd.Flags().String("description", "", "family description")
	cmd.Flags().String("sku", "", "family SKU")
	return cmd
}

func familiesClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <product-name>",
		Short: "Dry-run the classifier on a product name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			classifier := classify.NewClassifier(classify.DefaultPatterns())
			classification, ok := classifier.Classify(args[0])
			if !ok {
				fmt.Println(cli.FormatWarning("No family could be derived from that name."))
				return nil
			}
			fmt.Println(cli.RenderSummary("Classification",
				"Family", classification.FamilyName,
				"Confidence", fmt.Sprintf("%.2f", classification.Confidence),
				"Brand", classification.Components.Brand,
				"Product line", classification.Components.ProductLine,
				"Model number", classification.Components.ModelNumber,
			))
			return nil
		},
	}
}
