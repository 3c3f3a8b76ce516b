package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
	"custodia-hq/custodia/pkg/custody/service"
)

var registerFlags struct {
	id       string
	source   string
	uploader string
	parent   string
	metadata []string
	format   string
}

var registerCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Register an evidence file",
	Long: `Register an evidence file in the custody ledger.

The file content is fingerprinted (SHA-256), an evidence record is created,
a REGISTERED custody event is logged and an initial admissibility score is
computed. Use "-" to read content from stdin.

Derived evidence (an enhanced copy, a cropped frame) references its parent
by the parent's fingerprint:

Examples:
  # Register a CCTV clip
  custodia register clip.mp4 --source cctv --uploader "officer-41"

  # Register a derived enhancement
  custodia register enhanced.mp4 --source cctv --uploader "lab-3" \
    --parent 4c94d1f0...

  # Attach metadata
  custodia register photo.jpg --source mobile --uploader "det-oh" \
    --meta location=warehouse --meta camera=rear`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerFlags.id, "id", "", "evidence id (generated if empty)")
	registerCmd.Flags().StringVar(&registerFlags.source, "source", "", "source type (cctv, bodycam, mobile, ...)")
	registerCmd.Flags().StringVar(&registerFlags.uploader, "uploader", "", "uploader identity")
	registerCmd.Flags().StringVar(&registerFlags.parent, "parent", "", "parent fingerprint for derived evidence")
	registerCmd.Flags().StringArrayVar(&registerFlags.metadata, "meta", nil, "metadata entry as key=value (repeatable)")
	registerCmd.Flags().StringVar(&registerFlags.format, "format", "text", "output format: text, json")

	registerCmd.MarkFlagRequired("source")
	registerCmd.MarkFlagRequired("uploader")
}

func runRegister(cmd *cobra.Command, args []string) error {
	content, closeContent, err := openContent(args[0])
	if err != nil {
		return err
	}
	defer closeContent()

	metadata, err := parseMetadata(registerFlags.metadata)
	if err != nil {
		return err
	}

	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := svc.Register(cmd.Context(), &service.RegisterRequest{
		EvidenceID:        registerFlags.id,
		Content:           content,
		SourceType:        registerFlags.source,
		Uploader:          registerFlags.uploader,
		ParentFingerprint: registerFlags.parent,
		Metadata:          metadata,
	})
	if err != nil {
		return cli.NewCommandError("register", err)
	}

	if registerFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
	}
	fmt.Printf("✓ Evidence registered\n")
	fmt.Printf("  ID:          %s\n", result.EvidenceID)
	fmt.Printf("  Fingerprint: %s\n", result.Fingerprint)
	fmt.Printf("  Score:       %d\n", result.AdmissibilityScore)
	return nil
}

// openContent opens the named file, or stdin for "-".
func openContent(name string) (io.Reader, func() error, error) {
	if name == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, f.Close, nil
}

func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q (want key=value)", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}
