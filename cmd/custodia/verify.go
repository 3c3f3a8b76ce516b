package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
	"custodia-hq/custodia/pkg/custody"
)

var verifyFlags struct {
	actor  string
	format string
}

var verifyCmd = &cobra.Command{
	Use:   "verify <evidence-id> <file>",
	Short: "Verify evidence content against its stored fingerprint",
	Long: `Re-fingerprint evidence content and compare it against the fingerprint
stored at registration.

Reports INTACT when the digests match and TAMPERED when they differ. The
outcome is recorded as a VERIFIED custody event either way. Use "-" to
read content from stdin.

The command exits non-zero when tampering is detected so it composes in
scripts.

Examples:
  custodia verify 9f8c2a1e-... clip.mp4 --actor "analyst-7"
  cat clip.mp4 | custodia verify 9f8c2a1e-... - --actor "analyst-7"`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFlags.actor, "actor", "", "identity performing the verification")
	verifyCmd.Flags().StringVar(&verifyFlags.format, "format", "text", "output format: text, json")

	verifyCmd.MarkFlagRequired("actor")
}

func runVerify(cmd *cobra.Command, args []string) error {
	content, closeContent, err := openContent(args[1])
	if err != nil {
		return err
	}
	defer closeContent()

	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := svc.Verify(cmd.Context(), args[0], content, verifyFlags.actor)
	if err != nil {
		return cli.NewCommandError("verify", err)
	}

	if verifyFlags.format == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result); err != nil {
			return err
		}
	} else if result.Status == custody.StatusIntact {
		fmt.Printf("✓ INTACT: %s\n", args[0])
	} else {
		fmt.Printf("✗ TAMPERED: %s\n", args[0])
		fmt.Printf("  stored:  %s\n", result.StoredFingerprint)
		fmt.Printf("  current: %s\n", result.CurrentFingerprint)
	}

	if result.Status == custody.StatusTampered {
		// Exit non-zero without cobra reprinting an error message.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		os.Exit(2)
	}
	return nil
}
