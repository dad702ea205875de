package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/refurbd/palletflow/internal/cli"
	"github.com/refurbd/palletflow/internal/ingest"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Upload and parse a manifest file",
		Long: `Create a manifest record for a supplier file and load its rows.

Supports csv and xlsx files with a header row. Use --preview to inspect
the file without storing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().String("name", "", "manifest name (default: file name)")
	cmd.Flags().String("reference", "", "supplier or PO reference")
	cmd.Flags().String("notes", "", "free-form notes")
	cmd.Flags().Int("preview", 0, "show the first N rows without storing anything")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	name, _ := cmd.Flags().GetString("name")
	reference, _ := cmd.Flags().GetString("reference")
	notes, _ := cmd.Flags().GetString("notes")
	previewRows, _ := cmd.Flags().GetInt("preview")

	reader, fileType, err := ingest.OpenFile(path)
	if err != nil {
		return err
	}

	if previewRows > 0 {
		return printPreview(reader, previewRows)
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	runner, store, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manifest, err := runner.Ingestor.Upload(cmd.Context(), ingest.UploadOptions{
		Name:      name,
		FileType:  fileType,
		Reference: reference,
		Notes:     notes,
	})
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Loading rows"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	runner.Ingestor.OnProgress = func(done, total int) {
		bar.ChangeMax(total)
		_ = bar.Set(done)
	}

	rowCount, err := runner.Ingest(cmd.Context(), manifest.ID, reader)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Println(cli.RenderSummary("Manifest ingested",
		"Manifest ID", fmt.Sprintf("%d", manifest.ID),
		"Name", manifest.Name,
		"File type", fileType,
		"Rows", fmt.Sprintf("%d", rowCount),
		"Status", string(manifest.Status),
	))
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Next: palletflow suggest %d", manifest.ID)))
	return nil
}

func printPreview(reader ingest.RowReader, n int) error {
	headers, rows, err := ingest.Preview(reader, n)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Preview"))
	fmt.Println(cli.SubtleStyle.Render(strings.Join(headers, " | ")))
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, header := range headers {
			if v, ok := row[header]; ok && v != nil {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		fmt.Println(strings.Join(cells, " | "))
	}
	return nil
}
