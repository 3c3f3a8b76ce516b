package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
	"custodia-hq/custodia/pkg/custody/export"
)

var exportFlags struct {
	format string
	output string
	actor  string
}

var exportCmd = &cobra.Command{
	Use:   "export <evidence-id>",
	Short: "Export an evidence dossier",
	Long: `Export an evidence record together with its full custody timeline.

The export is recorded in the custody timeline as an EXPORTED event
attributed to --actor.

Examples:
  # JSON dossier to a file
  custodia export 9f8c2a1e-... --format json --output dossier.json --actor "clerk-2"

  # CSV timeline to stdout
  custodia export 9f8c2a1e-... --format csv --actor "clerk-2"`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlags.format, "format", "json", "export format: json, csv")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportFlags.actor, "actor", "", "identity performing the export")

	exportCmd.MarkFlagRequired("actor")
}

func runExport(cmd *cobra.Command, args []string) error {
	var exporter export.Exporter
	switch exportFlags.format {
	case "json":
		exporter = export.NewJSONExporter(true)
	case "csv":
		exporter = export.NewCSVExporter(true)
	default:
		return fmt.Errorf("unsupported export format %q (want json or csv)", exportFlags.format)
	}

	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	evidenceID := args[0]

	record, err := svc.Get(ctx, evidenceID)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	timeline, err := svc.Timeline(ctx, evidenceID)
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	var w io.Writer = os.Stdout
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportFlags.output, err)
		}
		defer f.Close()
		w = f
	}

	dossier := &export.Dossier{Evidence: record, Timeline: timeline}
	if err := exporter.Export(ctx, dossier, w); err != nil {
		return cli.NewCommandError("export", err)
	}

	detail := fmt.Sprintf("exported as %s", exporter.Format())
	if exportFlags.output != "" {
		detail += " to " + exportFlags.output
	}
	if err := svc.MarkExported(ctx, evidenceID, exportFlags.actor, detail); err != nil {
		return cli.NewCommandError("export", err)
	}

	if exportFlags.output != "" {
		fmt.Fprintf(os.Stderr, "✓ Exported %s to %s\n", evidenceID, exportFlags.output)
	}
	return nil
}
