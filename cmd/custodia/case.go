package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
)

var caseFlags struct {
	id        string
	title     string
	createdBy string
	format    string
}

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage cases and cross-evidence corroboration",
	Long: `Manage cases: named groupings of registered evidence for cross-evidence
corroboration.

Subcommands:
  create       - Create a case referencing registered evidence
  add          - Add an evidence item to a case (idempotent)
  corroborate  - Report per-evidence risk and the case corroboration score

Examples:
  custodia case create --id case-2031 --title "Warehouse break-in" \
    --created-by "det-oh" 9f8c2a1e-... 4c94d1f0-...

  custodia case add case-2031 77aa01bc-...

  custodia case corroborate case-2031`,
}

var caseCreateCmd = &cobra.Command{
	Use:   "create [evidence-id...]",
	Short: "Create a case",
	Long: `Create a case referencing zero or more registered evidence items.

Every referenced id must already be registered; unknown ids are all
reported in one error.`,
	RunE: runCaseCreate,
}

var caseAddCmd = &cobra.Command{
	Use:   "add <case-id> <evidence-id>",
	Short: "Add evidence to a case",
	Long:  `Add a registered evidence item to an existing case. Adding an item already in the case is a no-op.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runCaseAdd,
}

var caseCorroborateCmd = &cobra.Command{
	Use:   "corroborate <case-id>",
	Short: "Corroborate a case across its evidence",
	Long: `Recompute the admissibility of every evidence item in the case and
report the per-item risk plus the corroboration score: the percentage of
members at LOW or MEDIUM risk.`,
	Args: cobra.ExactArgs(1),
	RunE: runCaseCorroborate,
}

func init() {
	rootCmd.AddCommand(caseCmd)
	caseCmd.AddCommand(caseCreateCmd, caseAddCmd, caseCorroborateCmd)

	caseCreateCmd.Flags().StringVar(&caseFlags.id, "id", "", "case id (generated if empty)")
	caseCreateCmd.Flags().StringVar(&caseFlags.title, "title", "", "case title")
	caseCreateCmd.Flags().StringVar(&caseFlags.createdBy, "created-by", "", "creator identity")
	caseCreateCmd.MarkFlagRequired("title")
	caseCreateCmd.MarkFlagRequired("created-by")

	caseCorroborateCmd.Flags().StringVar(&caseFlags.format, "format", "text", "output format: text, json")
}

func runCaseCreate(cmd *cobra.Command, args []string) error {
	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	c, err := svc.CreateCase(cmd.Context(), caseFlags.id, caseFlags.title, caseFlags.createdBy, args)
	if err != nil {
		return cli.NewCommandError("case create", err)
	}

	fmt.Printf("✓ Case created\n")
	fmt.Printf("  ID:       %s\n", c.ID)
	fmt.Printf("  Title:    %s\n", c.Title)
	fmt.Printf("  Evidence: %d item(s)\n", len(c.EvidenceIDs))
	return nil
}

func runCaseAdd(cmd *cobra.Command, args []string) error {
	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := svc.AddCaseEvidence(cmd.Context(), args[0], args[1]); err != nil {
		return cli.NewCommandError("case add", err)
	}

	fmt.Printf("✓ Added %s to %s\n", args[1], args[0])
	return nil
}

func runCaseCorroborate(cmd *cobra.Command, args []string) error {
	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := svc.Corroborate(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("case corroborate", err)
	}

	if caseFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
	}

	fmt.Printf("Case %s\n", result.CaseID)
	for _, detail := range result.PerEvidenceDetail {
		fmt.Printf("  %-40s %-14s score=%3d  risk=%s\n",
			detail.EvidenceID, detail.SourceType, detail.AdmissibilityScore, detail.Risk)
	}
	fmt.Printf("Corroboration: %.2f%% of evidence at LOW or MEDIUM risk\n", result.CorroborationScore)
	return nil
}
