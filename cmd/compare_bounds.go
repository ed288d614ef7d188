package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/output"
)

var compareBoundsCmd = &cobra.Command{
	Use:   "compare-bounds VIEW_ID...",
	Short: "Compare find and capture bounds for views",
	Long: `For each view ID, look the node up with findByViewId, capture the full tree and
compare the two reported rectangles. A uniform difference usually means one of
the two paths reports window-relative coordinates.

Exits non-zero when any view's bounds differ.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompareBounds,
}

func init() {
	rootCmd.AddCommand(compareBoundsCmd)
	compareBoundsCmd.Flags().Bool("not-important", false, "Capture views not marked important for accessibility")
}

func runCompareBounds(cmd *cobra.Command, args []string) error {
	notImportant, _ := cmd.Flags().GetBool("not-important")

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	reports := make([]*inspector.BoundsReport, 0, len(args))
	mismatches := 0
	for _, viewID := range args {
		report, err := client.CompareBounds(cmd.Context(), viewID, inspector.CaptureOptions{NotImportant: notImportant})
		if err != nil {
			return err
		}
		if !report.Match {
			mismatches++
		}
		reports = append(reports, report)
	}
	if err := output.Print(reports); err != nil {
		return err
	}
	if mismatches > 0 {
		return fmt.Errorf("bounds differ for %d of %d views", mismatches, len(args))
	}
	return nil
}
