package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"custodia-hq/custodia/pkg/cli"
)

var timelineFlags struct {
	format string
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <evidence-id>",
	Short: "Show the custody timeline of an evidence item",
	Long: `Show the ordered chain of custody for an evidence item: every
registration, access, verification, export and archival, with actor and
timestamp.

Reading the timeline is itself untracked.

Examples:
  custodia timeline 9f8c2a1e-...
  custodia timeline 9f8c2a1e-... --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVar(&timelineFlags.format, "format", "text", "output format: text, json")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	svc, closer, err := openService()
	if err != nil {
		return err
	}
	defer closer.Close()

	timeline, err := svc.Timeline(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("timeline", err)
	}

	if timelineFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, timeline)
	}

	if len(timeline) == 0 {
		fmt.Printf("no custody events for %s\n", args[0])
		return nil
	}
	for _, event := range timeline {
		line := fmt.Sprintf("%3d  %-27s %-10s %s",
			event.Seq,
			event.Timestamp.Format("2006-01-02 15:04:05.000 MST"),
			event.Action,
			event.Actor,
		)
		if event.Detail != "" {
			line += "  " + event.Detail
		}
		fmt.Println(line)
	}
	return nil
}
