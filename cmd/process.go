package cmd

import (
	"context"
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"terarelay/internal"
)

var processQuiet bool

var processCmd = &cobra.Command{
	Use:   "process <URL>...",
	Short: "Run one batch of links from the command line",
	Long: `Process a batch of share links through the full pipeline and print
the per-link outcomes. Links from unsupported domains are skipped;
duplicate links are processed once.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		var bar *pb.ProgressBar
		progress := func(done, total int, outcome internal.LinkOutcome) {
			if processQuiet {
				return
			}
			if bar == nil {
				bar = pb.StartNew(total)
			}
			bar.Increment()
		}

		result, err := a.orch.ProcessBatch(ctx, args, progress)
		if bar != nil {
			bar.Finish()
		}
		if err != nil {
			return err
		}

		for _, outcome := range result.Outcomes {
			switch {
			case outcome.OK():
				fmt.Printf("✅ %s (%s)\n   %s\n", outcome.Summary.Name,
					outcome.Summary.SizeLabel, outcome.Summary.PublicReference)
			case outcome.IsDuplicate():
				fmt.Printf("⚠️  %s\n   %s\n", outcome.Err.Message,
					outcome.Existing.PublicReference)
			default:
				fmt.Printf("❌ %s\n   %s\n", outcome.Link, outcome.Err.Message)
			}
		}

		fmt.Printf("\n%d/%d links transferred\n", result.Succeeded(), len(result.Outcomes))
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVarP(&processQuiet, "quiet", "q", false, "suppress the progress bar")
	rootCmd.AddCommand(processCmd)
}
