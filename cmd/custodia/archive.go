package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
)

var archiveFlags struct {
	actor  string
	detail string
}

var archiveCmd = &cobra.Command{
	Use:   "archive <evidence-id>",
	Short: "Mark an evidence item as archived",
	Long: `Record an ARCHIVED custody event for an evidence item.

Archival is a custody fact, not a deletion: the record and its timeline
remain fully readable afterwards.

Examples:
  custodia archive 9f8c2a1e-... --actor "records-office" --detail "moved to cold storage"`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVar(&archiveFlags.actor, "actor", "", "identity performing the archival")
	archiveCmd.Flags().StringVar(&archiveFlags.detail, "detail", "", "free-form note recorded with the event")

	archiveCmd.MarkFlagRequired("actor")
}

func runArchive(cmd *cobra.Command, args []string) error {
	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := svc.Archive(cmd.Context(), args[0], archiveFlags.actor, archiveFlags.detail); err != nil {
		return cli.NewCommandError("archive", err)
	}

	fmt.Printf("✓ Archived %s\n", args[0])
	return nil
}
