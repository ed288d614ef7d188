package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/output"
)

var consistencyCmd = &cobra.Command{
	Use:   "consistency QUERY...",
	Short: "Compare native and custom finders",
	Long: `Run each query through the platform search and through the service's own tree
walker, and compare the match counts.

Examples:
  inspector-cli consistency com.example:id/title com.example:id/subtitle
  inspector-cli consistency --kind text --pause 200ms "Sign in" "Cancel"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsistency,
}

func init() {
	rootCmd.AddCommand(consistencyCmd)
	consistencyCmd.Flags().String("kind", string(inspector.ByViewID), "Query kind: viewId or text")
	consistencyCmd.Flags().Duration("pause", 0, "Pause between queries")
}

func runConsistency(cmd *cobra.Command, args []string) error {
	kindStr, _ := cmd.Flags().GetString("kind")
	pause, _ := cmd.Flags().GetDuration("pause")

	kind := inspector.QueryKind(kindStr)
	if kind != inspector.ByViewID && kind != inspector.ByText {
		return fmt.Errorf("unknown --kind %q: use viewId or text", kindStr)
	}

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := client.Consistency(cmd.Context(), kind, args, pause)
	if printErr := output.Print(results); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}
	inconsistent := 0
	for _, r := range results {
		if !r.Consistent {
			inconsistent++
		}
	}
	if inconsistent > 0 {
		return fmt.Errorf("%d of %d queries inconsistent", inconsistent, len(results))
	}
	return nil
}
