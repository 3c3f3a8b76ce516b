package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
)

var rescoreFlags struct {
	all bool
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore [evidence-id]",
	Short: "Recompute admissibility scores",
	Long: `Recompute the admissibility score of one evidence item, or of every
registered item with --all.

Scores are derivable from the source-weight table and the custody
timeline; rescoring brings the stored values in step after a weight-table
change.

Examples:
  custodia rescore 9f8c2a1e-...
  custodia rescore --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRescore,
}

func init() {
	rootCmd.AddCommand(rescoreCmd)

	rescoreCmd.Flags().BoolVar(&rescoreFlags.all, "all", false, "rescore every registered evidence item")
}

func runRescore(cmd *cobra.Command, args []string) error {
	if rescoreFlags.all == (len(args) == 1) {
		return fmt.Errorf("provide exactly one of an evidence id or --all")
	}

	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()

	if !rescoreFlags.all {
		score, err := svc.Rescore(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("rescore", err)
		}
		fmt.Printf("✓ %s rescored to %d\n", args[0], score)
		return nil
	}

	ids, err := svc.ListEvidenceIDs(ctx)
	if err != nil {
		return cli.NewCommandError("rescore", err)
	}

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(int64(len(ids)))
	for i, id := range ids {
		if _, err := svc.Rescore(ctx, id); err != nil {
			progress.Error(err)
			return cli.NewCommandError("rescore", err)
		}
		progress.Update(int64(i + 1))
	}
	progress.Finish()

	fmt.Printf("✓ Rescored %d evidence item(s)\n", len(ids))
	return nil
}
