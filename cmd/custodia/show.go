package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
	"custodia-hq/custodia/pkg/custody"
)

var showFlags struct {
	actor  string
	format string
}

var showCmd = &cobra.Command{
	Use:   "show <evidence-id>",
	Short: "Show an evidence record",
	Long: `Show an evidence record.

When --actor is given the access is itself recorded in the custody
timeline as an ACCESSED event; without it the read leaves no trace.

Examples:
  custodia show 9f8c2a1e-...
  custodia show 9f8c2a1e-... --actor "reviewer-12"`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showFlags.actor, "actor", "", "record the access under this identity")
	showCmd.Flags().StringVar(&showFlags.format, "format", "text", "output format: text, json")
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	var record *custody.EvidenceRecord
	if showFlags.actor != "" {
		record, err = svc.Access(cmd.Context(), args[0], showFlags.actor)
	} else {
		record, err = svc.Get(cmd.Context(), args[0])
	}
	if err != nil {
		return cli.NewCommandError("show", err)
	}

	if showFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, record)
	}
	printRecord(record)
	return nil
}

func printRecord(record *custody.EvidenceRecord) {
	fmt.Printf("ID:          %s\n", record.ID)
	fmt.Printf("Fingerprint: %s\n", record.Fingerprint)
	fmt.Printf("Source:      %s\n", record.SourceType)
	fmt.Printf("Uploader:    %s\n", record.Uploader)
	if record.ParentFingerprint != "" {
		fmt.Printf("Parent:      %s\n", record.ParentFingerprint)
	}
	if record.AdmissibilityScore != nil {
		fmt.Printf("Score:       %d\n", *record.AdmissibilityScore)
	}
	fmt.Printf("Registered:  %s\n", record.RegisteredAt.Format("2006-01-02 15:04:05 MST"))
	if len(record.Metadata) > 0 {
		pairs := make([]string, 0, len(record.Metadata))
		for k, v := range record.Metadata {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
		}
		fmt.Printf("Metadata:    %s\n", strings.Join(pairs, " "))
	}
}
